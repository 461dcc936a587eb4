package summarizer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/fasthumb/pkg/mocks"
	"github.com/user/fasthumb/pkg/ports"
)

func sampleSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Input:       InputInfo{Path: "recording.ts", StreamID: 256, Probed: true},
		Sampling: SamplingInfo{
			Packets:        50000,
			MatchedPackets: 42000,
			Keyframes:      6,
			BufferBytes:    1024 * 1024,
		},
		Settings: Settings{
			Backend:  "nvdec",
			Interval: 10 * time.Second,
			Width:    240,
			Height:   192,
			Quality:  75,
		},
		Output: OutputInfo{
			Decoded:    6,
			Thumbnails: []string{"thumbs/0.jpg", "thumbs/1.jpg"},
			OutputDir:  "thumbs",
			SheetPath:  "thumbs/sheet.jpg",
		},
	}
}

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	result := NewMarkdownFormatter().Format(sampleSummary())

	checks := []string{
		"# Thumbnail Summary",
		"2024-01-15T10:30:00Z",
		"recording.ts",
		"256 (probed)",
		"| Packets Scanned | 50000 |",
		"| Keyframes Sampled | 6 |",
		"1.00 MB",
		"nvdec",
		"10s",
		"240x192",
		"`thumbs/1.jpg`",
		"`thumbs/sheet.jpg`",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestMarkdownFormatter_NoOutput(t *testing.T) {
	summary := sampleSummary()
	summary.Output = OutputInfo{}

	result := NewMarkdownFormatter().Format(summary)
	if strings.Contains(result, "## Output") {
		t.Error("output section should be omitted when nothing was written")
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Thumbnail Summary": "サムネイルサマリー",
			"Keyframes Sampled": "抽出キーフレーム数",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	result := NewMarkdownFormatter(WithTranslator(translator)).Format(sampleSummary())

	if !strings.Contains(result, "サムネイルサマリー") {
		t.Error("expected translated 'Thumbnail Summary'")
	}
	if !strings.Contains(result, "抽出キーフレーム数") {
		t.Error("expected translated 'Keyframes Sampled'")
	}
}

func TestMarkdownFormatter_WithVersion(t *testing.T) {
	result := NewMarkdownFormatter(WithVersion("v1.2.0")).Format(sampleSummary())

	if !strings.Contains(result, "v1.2.0") {
		t.Error("expected output to contain version 'v1.2.0'")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1536 * 1024 * 1024, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := formatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(FormatFunc(func(s *Summary) string { return "summary of " + s.Input.Path }), fs)

	if err := w.Write("out/summary.md", sampleSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, ok := fs.GetFile("out/summary.md")
	if !ok || string(data) != "summary of recording.ts" {
		t.Errorf("unexpected content %q", data)
	}

	fs.WriteFileFunc = func(string, []byte) error { return errors.New("disk full") }
	if err := w.Write("out/summary.md", sampleSummary()); !errors.Is(err, ports.ErrIO) {
		t.Errorf("expected I/O error, got %v", err)
	}
}
