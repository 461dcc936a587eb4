// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"path/filepath"

	"github.com/user/fasthumb/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveKeyframes saves the sampled elementary stream. The file plays with
// `ffplay -f h264`.
func (s *Sink) SaveKeyframes(data []byte) error {
	return s.write("keyframes.h264", data)
}

// SaveSegmentsJSON saves the accepted segments as JSON.
func (s *Sink) SaveSegmentsJSON(data []byte) error {
	return s.write("segments.json", data)
}

// SaveRunJSON saves the run result as JSON.
func (s *Sink) SaveRunJSON(data []byte) error {
	return s.write("run.json", data)
}

func (s *Sink) write(name string, data []byte) error {
	path := filepath.Join(s.baseDir, name)
	if err := s.fs.WriteFile(path, data); err != nil {
		return &ports.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
