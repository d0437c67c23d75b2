package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Server exposes the API via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    zerolog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, api API, logger zerolog.Logger) (*Server, error) {
	if api == nil {
		return nil, errors.New("ipc server requires an API implementation")
	}
	logger = logger.With().Str("component", "ipc").Logger()

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(ServiceName, &rpcService{api: api, ctx: serverCtx}); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Path returns the socket path
func (s *Server) Path() string {
	return s.path
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug().Str("socket", s.path).Msg("IPC server listening")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn().Err(err).Msg("accept failed")
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn().Err(err).Str("socket", s.path).Msg("failed to remove socket")
	}
}

// rpcService adapts API to net/rpc method signatures
type rpcService struct {
	api API
	ctx context.Context
}

func (s *rpcService) OpenFileDialog(req OpenFileDialogRequest, resp *OpenFileDialogResponse) error {
	paths, err := s.api.OpenFileDialog(s.ctx, req.Filters)
	resp.Paths = paths
	resp.Failure = failureFrom(err)
	return nil
}

func (s *rpcService) OpenFolderDialog(_ OpenFolderDialogRequest, resp *OpenFolderDialogResponse) error {
	path, selected, err := s.api.OpenFolderDialog(s.ctx)
	resp.Path = path
	resp.Selected = selected
	resp.Failure = failureFrom(err)
	return nil
}

func (s *rpcService) ReadFileBytes(req ReadFileBytesRequest, resp *ReadFileBytesResponse) error {
	data, err := s.api.ReadFileBytes(s.ctx, req.Path)
	resp.Data = data
	resp.Failure = failureFrom(err)
	return nil
}

func (s *rpcService) ConvertToPDF(req ConvertRequest, resp *ConvertResponse) error {
	out, err := s.api.ConvertToPDF(s.ctx, req.Descriptor)
	if err != nil {
		return err
	}
	resp.Outcome = out
	return nil
}

func (s *rpcService) ConvertFromPDF(req ConvertRequest, resp *ConvertResponse) error {
	out, err := s.api.ConvertFromPDF(s.ctx, req.Descriptor)
	if err != nil {
		return err
	}
	resp.Outcome = out
	return nil
}

func (s *rpcService) SaveImageBytes(req SaveImageBytesRequest, resp *SaveImageBytesResponse) error {
	path, err := s.api.SaveImageBytes(s.ctx, req.Filename, req.Data)
	resp.Path = path
	resp.Failure = failureFrom(err)
	return nil
}

func (s *rpcService) OpenPath(req OpenPathRequest, resp *OpenPathResponse) error {
	resp.Failure = failureFrom(s.api.OpenPath(s.ctx, req.Path))
	return nil
}

func (s *rpcService) GetSettings(_ GetSettingsRequest, resp *SettingsResponse) error {
	st, err := s.api.GetSettings(s.ctx)
	resp.Settings = st
	resp.Failure = failureFrom(err)
	return nil
}

func (s *rpcService) SetSettings(req SetSettingsRequest, resp *SettingsResponse) error {
	st, err := s.api.SetSettings(s.ctx, req.Patch)
	resp.Settings = st
	resp.Failure = failureFrom(err)
	return nil
}

func (s *rpcService) AppVersion(_ AppVersionRequest, resp *AppVersionResponse) error {
	v, err := s.api.AppVersion(s.ctx)
	resp.Version = v
	return err
}

func (s *rpcService) LicenseNotices(_ LicenseNoticesRequest, resp *LicenseNoticesResponse) error {
	text, err := s.api.LicenseNotices(s.ctx)
	resp.Text = text
	return err
}
