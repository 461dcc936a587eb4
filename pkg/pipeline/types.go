package pipeline

import (
	"image/color"
	"time"

	"github.com/user/fasthumb/pkg/demux"
	"github.com/user/fasthumb/pkg/ports"
)

// =============================================================================
// Extract Stage Types
// =============================================================================

// ExtractInput contains parameters for keyframe extraction.
type ExtractInput struct {
	InputPath string
	StreamID  uint16        // 0 probes the PAT/PMT for the first H.264 stream
	Interval  time.Duration // Minimum spacing between sampled keyframes
}

// ExtractResult contains the sampled keyframes.
type ExtractResult struct {
	StreamID uint16 // The stream that was scanned (probed or given)
	Probed   bool
	Buffer   *demux.KeyframeBuffer
}

// =============================================================================
// Decode Stage Types
// =============================================================================

// DecodeInput contains parameters for decoding keyframes into thumbnails.
type DecodeInput struct {
	Buffer    *demux.KeyframeBuffer
	Width     int // Thumbnail width (even)
	Height    int // Thumbnail height (even)
	OutputDir string
	Quality   int // JPEG quality (1-100)
}

// DecodeResult contains the written thumbnails.
type DecodeResult struct {
	Decoded    int                // Pictures passed to the decoder
	Thumbnails []string           // Written files, in display order
	Format     *ports.VideoFormat // Negotiated stream format, nil if nothing was decoded
}

// =============================================================================
// Sheet Stage Types
// =============================================================================

// SheetInput contains parameters for the contact sheet.
type SheetInput struct {
	Thumbnails []string
	OutputPath string
	Columns    int
	Quality    int
	Background color.Color
}

// SheetResult contains the written contact sheet.
type SheetResult struct {
	Path   string
	Images int
}
