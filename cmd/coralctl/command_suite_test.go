package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/internal/testutils"
	"github.com/srg/coral/pkg/config"
)

const testConfig = `
scan_timeout: 100ms
connect_timeout: 2s
request_timeout: 500ms
notification_interval: 10ms
`

// CommandTestSuite runs coralctl against an in-memory adapter.
// All cmd/coralctl suites embed it.
type CommandTestSuite struct {
	suite.Suite

	ads        []device.Advertisement
	transports []*testutils.MockTransport
	configPath string

	originalFactory func(*config.Config, *logrus.Logger) (device.Adapter, error)
}

func (s *CommandTestSuite) SetupTest() {
	s.ads = nil
	s.transports = nil

	s.configPath = filepath.Join(s.T().TempDir(), "config.yaml")
	s.Require().NoError(os.WriteFile(s.configPath, []byte(testConfig), 0o600), "config write MUST succeed")

	s.originalFactory = adapterFactory
	adapterFactory = func(*config.Config, *logrus.Logger) (device.Adapter, error) {
		adapter := testutils.NewMockAdapter(s.ads...)
		for _, t := range s.transports {
			adapter.WithTransport(t)
		}
		return adapter, nil
	}
}

func (s *CommandTestSuite) TearDownTest() {
	adapterFactory = s.originalFactory
}

// AddDevice advertises a Coral device and backs it with a simulated peripheral.
func (s *CommandTestSuite) AddDevice(address, name string, kindIndex uint8, product protocol.ProductGroupDevice, extra ...byte) *testutils.MockTransport {
	s.ads = append(s.ads, testutils.NewAdvertisementBuilder().
		WithAddress(address).
		WithName(name).
		WithRSSI(-60).
		WithCoral(kindIndex, extra...).
		Build())
	t := testutils.NewMockTransport(address).WithResponder(testutils.NewDeviceSim(product).Respond)
	s.transports = append(s.transports, t)
	return t
}

// Execute runs coralctl with args and returns stdout.
func (s *CommandTestSuite) Execute(args ...string) (string, error) {
	return s.ExecuteContext(context.Background(), args...)
}

func (s *CommandTestSuite) ExecuteContext(ctx context.Context, args ...string) (string, error) {
	root := newRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append([]string{"--config", s.configPath}, args...))
	err := root.ExecuteContext(ctx)
	return stdout.String(), err
}
