package coral

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srg/coral/internal/connection"
	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/pkg/config"
)

// Options configures a device wrapper.
type Options struct {
	RequestTimeout       time.Duration
	NotificationInterval time.Duration
	// EventBuffer is the capacity of the Events channel. The oldest event is
	// dropped when a slow reader lets it fill up.
	EventBuffer int
	FrameTap    uint32
	Logger      *logrus.Logger
}

// DefaultOptions returns the interactive defaults.
func DefaultOptions() *Options {
	return &Options{
		RequestTimeout:       protocol.DefaultRequestTimeout,
		NotificationInterval: protocol.DefaultNotificationInterval,
		EventBuffer:          128,
	}
}

// OptionsFromConfig maps the application configuration onto device options.
func OptionsFromConfig(cfg *config.Config, logger *logrus.Logger) *Options {
	return &Options{
		RequestTimeout:       cfg.RequestTimeout,
		NotificationInterval: cfg.NotificationInterval,
		EventBuffer:          cfg.EventBuffer,
		FrameTap:             cfg.FrameTap,
		Logger:               logger,
	}
}

func (o *Options) withDefaults() Options {
	out := *DefaultOptions()
	if o == nil {
		out.Logger = logrus.New()
		return out
	}
	if o.RequestTimeout > 0 {
		out.RequestTimeout = o.RequestTimeout
	}
	if o.NotificationInterval > 0 {
		out.NotificationInterval = o.NotificationInterval
	}
	if o.EventBuffer > 0 {
		out.EventBuffer = o.EventBuffer
	}
	out.FrameTap = o.FrameTap
	out.Logger = o.Logger
	if out.Logger == nil {
		out.Logger = logrus.New()
	}
	return out
}

func (o Options) connection() *connection.Options {
	return &connection.Options{RequestTimeout: o.RequestTimeout, FrameTap: o.FrameTap}
}
