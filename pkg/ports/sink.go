package ports

// DebugSink abstracts debug output for intermediate results.
// It allows saving what the demuxer sampled so it can be inspected with
// other tools.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveKeyframes saves the sampled Annex B elementary stream.
	SaveKeyframes(data []byte) error

	// SaveSegmentsJSON saves the accepted keyframe segments as JSON.
	SaveSegmentsJSON(data []byte) error

	// SaveRunJSON saves the run result as JSON.
	SaveRunJSON(data []byte) error
}
