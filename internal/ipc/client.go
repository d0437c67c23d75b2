package ipc

import (
	"context"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"pdfsuite/internal/desktop"
	"pdfsuite/internal/models"
	"pdfsuite/internal/settings"
)

// Client provides RPC access to the orchestration process.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// call performs an RPC and stops waiting when ctx ends
func (c *Client) call(ctx context.Context, method string, args, reply any) error {
	pending := c.client.Go(ServiceName+"."+method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case done := <-pending.Done:
		return done.Error
	}
}

func (c *Client) OpenFileDialog(ctx context.Context, filters []desktop.Filter) ([]string, error) {
	var resp OpenFileDialogResponse
	if err := c.call(ctx, "OpenFileDialog", OpenFileDialogRequest{Filters: filters}, &resp); err != nil {
		return nil, err
	}
	return resp.Paths, resp.Failure.Err()
}

func (c *Client) OpenFolderDialog(ctx context.Context) (string, bool, error) {
	var resp OpenFolderDialogResponse
	if err := c.call(ctx, "OpenFolderDialog", OpenFolderDialogRequest{}, &resp); err != nil {
		return "", false, err
	}
	return resp.Path, resp.Selected, resp.Failure.Err()
}

func (c *Client) ReadFileBytes(ctx context.Context, path string) ([]byte, error) {
	var resp ReadFileBytesResponse
	if err := c.call(ctx, "ReadFileBytes", ReadFileBytesRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, resp.Failure.Err()
}

func (c *Client) ConvertToPDF(ctx context.Context, desc models.Descriptor) (models.Outcome, error) {
	var resp ConvertResponse
	if err := c.call(ctx, "ConvertToPDF", ConvertRequest{Descriptor: desc}, &resp); err != nil {
		return models.Outcome{}, err
	}
	return resp.Outcome, nil
}

func (c *Client) ConvertFromPDF(ctx context.Context, desc models.Descriptor) (models.Outcome, error) {
	var resp ConvertResponse
	if err := c.call(ctx, "ConvertFromPDF", ConvertRequest{Descriptor: desc}, &resp); err != nil {
		return models.Outcome{}, err
	}
	return resp.Outcome, nil
}

func (c *Client) SaveImageBytes(ctx context.Context, filename string, data []byte) (string, error) {
	var resp SaveImageBytesResponse
	if err := c.call(ctx, "SaveImageBytes", SaveImageBytesRequest{Filename: filename, Data: data}, &resp); err != nil {
		return "", err
	}
	return resp.Path, resp.Failure.Err()
}

func (c *Client) OpenPath(ctx context.Context, path string) error {
	var resp OpenPathResponse
	if err := c.call(ctx, "OpenPath", OpenPathRequest{Path: path}, &resp); err != nil {
		return err
	}
	return resp.Failure.Err()
}

func (c *Client) GetSettings(ctx context.Context) (settings.Settings, error) {
	var resp SettingsResponse
	if err := c.call(ctx, "GetSettings", GetSettingsRequest{}, &resp); err != nil {
		return settings.Settings{}, err
	}
	return resp.Settings, resp.Failure.Err()
}

func (c *Client) SetSettings(ctx context.Context, patch settings.Patch) (settings.Settings, error) {
	var resp SettingsResponse
	if err := c.call(ctx, "SetSettings", SetSettingsRequest{Patch: patch}, &resp); err != nil {
		return settings.Settings{}, err
	}
	return resp.Settings, resp.Failure.Err()
}

func (c *Client) AppVersion(ctx context.Context) (string, error) {
	var resp AppVersionResponse
	if err := c.call(ctx, "AppVersion", AppVersionRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}

func (c *Client) LicenseNotices(ctx context.Context) (string, error) {
	var resp LicenseNoticesResponse
	if err := c.call(ctx, "LicenseNotices", LicenseNoticesRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}
