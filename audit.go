package goRedeem

import "github.com/MrEthical07/goRedeem/internal/audit"

type (
	AuditEvent     = audit.Event
	AuditSink      = audit.Sink
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	SlogSink       = audit.SlogSink
	AuditStats     = audit.Stats
)

var (
	NewChannelSink    = audit.NewChannelSink
	NewJSONWriterSink = audit.NewJSONWriterSink
	NewSlogSink       = audit.NewSlogSink
)
