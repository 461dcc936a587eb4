package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion sets the version shown in the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Thumbnail Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## %s\n\n", t("Results"))
	f.header(&b)
	row(&b, t("Input"), s.Input.Path)
	stream := fmt.Sprintf("%d", s.Input.StreamID)
	if s.Input.Probed {
		stream += " (" + t("probed") + ")"
	}
	row(&b, t("Stream"), stream)
	row(&b, t("Packets Scanned"), fmt.Sprintf("%d", s.Sampling.Packets))
	row(&b, t("Packets on Stream"), fmt.Sprintf("%d", s.Sampling.MatchedPackets))
	row(&b, t("Keyframes Sampled"), fmt.Sprintf("%d", s.Sampling.Keyframes))
	row(&b, t("Keyframe Data"), formatBytes(s.Sampling.BufferBytes))
	row(&b, t("Pictures Decoded"), fmt.Sprintf("%d", s.Output.Decoded))
	row(&b, t("Thumbnails Written"), fmt.Sprintf("%d", len(s.Output.Thumbnails)))
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	f.header(&b)
	if s.Settings.Backend != "" {
		row(&b, t("Backend"), s.Settings.Backend)
	}
	row(&b, t("Interval"), s.Settings.Interval.String())
	row(&b, t("Thumbnail Size"), fmt.Sprintf("%dx%d", s.Settings.Width, s.Settings.Height))
	row(&b, t("Quality"), fmt.Sprintf("%d", s.Settings.Quality))
	b.WriteString("\n")

	if len(s.Output.Thumbnails) > 0 || s.Output.SheetPath != "" {
		fmt.Fprintf(&b, "## %s\n\n", t("Output"))
		if s.Output.OutputDir != "" {
			fmt.Fprintf(&b, "%s: `%s`\n\n", t("Directory"), s.Output.OutputDir)
		}
		for _, path := range s.Output.Thumbnails {
			fmt.Fprintf(&b, "- `%s`\n", path)
		}
		if s.Output.SheetPath != "" {
			fmt.Fprintf(&b, "\n%s: `%s`\n", t("Contact Sheet"), s.Output.SheetPath)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	if f.version != "" {
		fmt.Fprintf(&b, "%s fasthumb %s\n", t("Generated by"), f.version)
	} else {
		fmt.Fprintf(&b, "%s fasthumb\n", t("Generated by"))
	}
	return b.String()
}

func (f *MarkdownFormatter) header(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
}

func row(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", key, value)
}

// formatBytes formats a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}
