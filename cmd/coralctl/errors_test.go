package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/coral/internal/connection"
	"github.com/srg/coral/internal/correlate"
	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/pkg/config"
	"github.com/srg/coral/pkg/coral"
)

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bluetooth off", fmt.Errorf("scan failed: %w", device.ErrBluetoothOff), "Bluetooth adapter unavailable; is Bluetooth turned on?"},
		{"timeout", fmt.Errorf("info request failed: %w", correlate.ErrTimeout), "device did not respond in time"},
		{"closed", correlate.ErrConnectionClosed, "connection to the device was lost"},
		{"kind mismatch", &coral.KindMismatchError{
			Expected: protocol.KindSingleMotor,
			Reported: protocol.KindDoubleMotor,
			Product:  protocol.ProductCoralDualMotor,
		}, fmt.Sprintf("%s is not a SingleMotor (it reported DoubleMotor)", protocol.ProductCoralDualMotor)},
		{"phase", &connection.PhaseError{Phase: connection.PhaseConnect, Err: errors.New("le-connection-abort-by-local")}, "connect step failed: le-connection-abort-by-local"},
		{"missing characteristic", &connection.PhaseError{Phase: connection.PhaseDiscover, Err: &device.NotFoundError{Resource: "service", UUIDs: []string{protocol.ServiceUUID}}},
			fmt.Sprintf("service %q not found; is this a Coral device?", protocol.ServiceUUID)},
		{"not ready", connection.ErrNotReady, "device is not connected"},
		{"passthrough", errors.New("something else"), "something else"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUserError(tt.err))
		})
	}
}

func newConfigTestCmd(args ...string) *cobra.Command {
	root := newRootCmd()
	_ = root.ParseFlags(args)
	return root
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: tinygo\nscan_timeout: 3s\nlog_level: warn\n"), 0o600))

	cfg, fromFile, err := loadConfig(newConfigTestCmd("--config", path))
	require.NoError(t, err)
	assert.True(t, fromFile)
	assert.Equal(t, config.BackendTinyGo, cfg.Backend)
	assert.Equal(t, "3s", cfg.ScanTimeout.String())
	assert.Equal(t, "30s", cfg.RequestTimeout.String(), "unset fields MUST keep defaults")

	cfg, _, err = loadConfig(newConfigTestCmd("--config", path, "--backend", "go-ble"))
	require.NoError(t, err)
	assert.Equal(t, config.BackendGoBLE, cfg.Backend, "--backend MUST override the file")

	_, _, err = loadConfig(newConfigTestCmd("--config", filepath.Join(dir, "missing.yaml")))
	assert.Error(t, err, "an explicit config path MUST exist")
}

func TestConfigureLoggerPrecedence(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "warn"

	logger, err := configureLogger(newConfigTestCmd(), cfg, false)
	require.NoError(t, err)
	assert.Equal(t, "panic", logger.GetLevel().String(), "logging MUST be silent by default")

	logger, err = configureLogger(newConfigTestCmd(), cfg, true)
	require.NoError(t, err)
	assert.Equal(t, "warning", logger.GetLevel().String())

	logger, err = configureLogger(newConfigTestCmd("--verbose"), cfg, true)
	require.NoError(t, err)
	assert.Equal(t, "debug", logger.GetLevel().String())

	logger, err = configureLogger(newConfigTestCmd("--verbose", "--log-level", "error"), cfg, true)
	require.NoError(t, err)
	assert.Equal(t, "error", logger.GetLevel().String())

	_, err = configureLogger(newConfigTestCmd("--log-level", "loud"), cfg, false)
	assert.ErrorContains(t, err, "invalid log level")
}
