package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"pdfsuite/internal/config"
	"pdfsuite/internal/ipc"
	"pdfsuite/internal/logging"
)

type commandContext struct {
	socketFlag  *string
	configFlag  *string
	verboseFlag *bool
	localFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string, verboseFlag, localFlag *bool) *commandContext {
	return &commandContext{
		socketFlag:  socketFlag,
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
		localFlag:   localFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
			expanded, err := config.ExpandPath(*c.socketFlag)
			if err != nil {
				c.configErr = err
				return
			}
			cfg.SocketPath = expanded
			cfg.LockPath = expanded + ".lock"
		}
		if c.verbose() {
			cfg.Verbose = true
		}
		c.config = &cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

func (c *commandContext) local() bool {
	return c.localFlag != nil && *c.localFlag
}

// logger builds a logger for the CLI. Interactive commands only log warnings
// unless --verbose is given; the service logs at the configured level.
func (c *commandContext) logger(service bool) zerolog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return logging.New(logging.Options{Level: "warn"})
	}
	level := cfg.LogLevel
	switch {
	case cfg.Verbose:
		level = "debug"
	case !service:
		level = "warn"
	}
	return logging.New(logging.Options{Level: level, Format: cfg.LogFormat})
}

// withAPI runs fn against the service socket, or against an in-process
// service when --local is set.
func (c *commandContext) withAPI(ctx context.Context, fn func(ipc.API) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	if c.local() {
		orch := newOrchestrator(ctx, cfg, c.logger(false), nil)
		defer orch.Close()
		return fn(orch.service)
	}

	client, err := ipc.Dial(cfg.SocketPath)
	if err != nil {
		return wrapDialError(err, cfg.SocketPath)
	}
	defer client.Close()
	return fn(client)
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to service: socket %s not found; start it with `pdfsuite serve` or pass --local", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to service: socket %s refused the connection; verify `pdfsuite serve` is running", socket)
	default:
		return fmt.Errorf("connect to service: %w", err)
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
