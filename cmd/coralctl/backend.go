package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/coral/internal/device"
	goble "github.com/srg/coral/internal/device/go-ble"
	"github.com/srg/coral/internal/device/tinyble"
	"github.com/srg/coral/internal/scanner"
	"github.com/srg/coral/pkg/config"
	"github.com/srg/coral/pkg/coral"
)

// adapterFactory opens the host radio. Tests replace it with a mock.
var adapterFactory = func(cfg *config.Config, logger *logrus.Logger) (device.Adapter, error) {
	switch cfg.Backend {
	case config.BackendTinyGo:
		return tinyble.NewAdapter(logger), nil
	case config.BackendGoBLE:
		return goble.NewAdapter(logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// session is what every device-facing command needs.
type session struct {
	cfg     *config.Config
	logger  *logrus.Logger
	adapter device.Adapter
}

func (s *session) options() *coral.Options {
	return coral.OptionsFromConfig(s.cfg, s.logger)
}

// loadConfig reads --config, or the default path when it exists.
func loadConfig(cmd *cobra.Command) (*config.Config, bool, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	fromFile := false
	if path != "" {
		loaded, err := config.Load(path)
		switch {
		case err == nil:
			cfg, fromFile = loaded, true
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return nil, false, err
		}
	}

	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Backend = backend
		if err := cfg.Validate(); err != nil {
			return nil, false, err
		}
	}
	return cfg, fromFile, nil
}

// newSession resolves config and logging, then opens the adapter.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, fromFile, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := configureLogger(cmd, cfg, fromFile)
	if err != nil {
		return nil, err
	}
	adapter, err := adapterFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open BLE adapter: %w", err)
	}
	return &session{cfg: cfg, logger: logger, adapter: adapter}, nil
}

// connect finds the device at address and connects to it. The returned
// cleanup disconnects and releases the handle.
func (s *session) connect(ctx context.Context, address string, opts *coral.Options) (coral.Peripheral, func(), error) {
	if opts == nil {
		opts = s.options()
	}
	p, err := coral.Find(ctx, s.adapter, address, &scanner.ScanOptions{Duration: s.cfg.ScanTimeout}, opts)
	if err != nil {
		return nil, nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()
	if err := p.Connect(connectCtx); err != nil {
		_ = p.Close()
		return nil, nil, err
	}
	s.logger.WithFields(logrus.Fields{"address": address, "kind": p.Kind()}).Info("Connected")
	return p, func() { _ = p.Close() }, nil
}
