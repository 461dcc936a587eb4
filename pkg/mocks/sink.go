package mocks

import "github.com/user/fasthumb/pkg/ports"

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	enabled bool

	Keyframes    []byte
	SegmentsJSON []byte
	RunJSON      []byte
}

// NewDebugSink creates a mock sink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{enabled: enabled}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveKeyframes(data []byte) error {
	m.Keyframes = data
	return nil
}

func (m *DebugSink) SaveSegmentsJSON(data []byte) error {
	m.SegmentsJSON = data
	return nil
}

func (m *DebugSink) SaveRunJSON(data []byte) error {
	m.RunJSON = data
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
