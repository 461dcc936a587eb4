// Package summarizer provides summary generation for thumbnail runs.
package summarizer

import "time"

// Summary contains all data collected during a run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Input stream
	Input InputInfo

	// Keyframe sampling results
	Sampling SamplingInfo

	// Run settings
	Settings Settings

	// Written output
	Output OutputInfo
}

// InputInfo describes the scanned file.
type InputInfo struct {
	Path     string
	StreamID uint16
	Probed   bool
}

// SamplingInfo contains demux counters.
type SamplingInfo struct {
	Packets        int
	MatchedPackets int
	Keyframes      int
	BufferBytes    int64
}

// Settings contains the run configuration.
type Settings struct {
	Backend  string
	Interval time.Duration
	Width    int
	Height   int
	Quality  int
}

// OutputInfo contains information about the written files.
type OutputInfo struct {
	Decoded    int
	Thumbnails []string
	OutputDir  string
	SheetPath  string
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithInput sets input information.
func (b *Builder) WithInput(path string, streamID uint16, probed bool) *Builder {
	b.summary.Input = InputInfo{
		Path:     path,
		StreamID: streamID,
		Probed:   probed,
	}
	return b
}

// WithSampling sets demux counters.
func (b *Builder) WithSampling(packets, matched, keyframes int, bufferBytes int64) *Builder {
	b.summary.Sampling = SamplingInfo{
		Packets:        packets,
		MatchedPackets: matched,
		Keyframes:      keyframes,
		BufferBytes:    bufferBytes,
	}
	return b
}

// WithSettings sets run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutput sets output information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
