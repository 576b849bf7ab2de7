package main

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/internal/testutils"
)

type ScanTestSuite struct {
	CommandTestSuite
}

func (s *ScanTestSuite) SetupTest() {
	s.CommandTestSuite.SetupTest()
	s.AddDevice("AA", "Stick", 3, protocol.ProductCoralJoystick, byte(protocol.ColorRed), 42, 0)
	s.AddDevice("BB", "Motor", 0, protocol.ProductCoralSingleMotor)
	s.ads = append(s.ads, testutils.NewAdvertisementBuilder().
		WithAddress("CC").WithName("Headphones").WithServices("180f").Build())
}

func (s *ScanTestSuite) TestTableOutput() {
	// GOAL: scan lists Coral devices only, sorted by address, in aligned columns
	//
	// TEST SCENARIO: controller + motor + foreign ad → two table rows
	out, err := s.Execute("scan")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T()).Assert(out, `
ADDRESS  NAME   KIND         COLOR  TAG  RSSI
AA       Stick  Controller   red    42   -60
BB       Motor  SingleMotor  -      -    -60
`)
}

func (s *ScanTestSuite) TestJSONOutput() {
	out, err := s.Execute("scan", "--format", "json")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).WithOptions(testutils.WithIgnoreExtraKeys(false)).Assert(out, `[
		{"address": "AA", "name": "Stick", "kind": "Controller", "color": "red", "tag": 42, "rssi": -60},
		{"address": "BB", "name": "Motor", "kind": "SingleMotor", "rssi": -60}
	]`)
}

func (s *ScanTestSuite) TestKindFilter() {
	out, err := s.Execute("scan", "--format", "json", "--kind", "singlemotor")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(out, `[{"address": "BB", "kind": "SingleMotor"}]`)
}

func (s *ScanTestSuite) TestBlockList() {
	out, err := s.Execute("scan", "--format", "json", "--block", "AA")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(out, `[{"address": "BB"}]`)
}

func (s *ScanTestSuite) TestNothingFound() {
	s.ads = nil
	out, err := s.Execute("scan")
	s.Require().NoError(err)
	s.Contains(out, "No Coral devices found.")
}

func (s *ScanTestSuite) TestInvalidArguments() {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"format", []string{"scan", "--format", "xml"}, "invalid format 'xml'"},
		{"kind", []string{"scan", "--kind", "toaster"}, `unknown device kind "toaster"`},
		{"backend", []string{"--backend", "bluez", "scan"}, "backend must be"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.Execute(tt.args...)
			s.Require().Error(err)
			s.Contains(err.Error(), tt.want)
		})
	}
}

func TestScanTestSuite(t *testing.T) {
	suite.Run(t, new(ScanTestSuite))
}
