package metadata

import (
	"fmt"
	"strings"
	"time"
)

// CommentTimeLayout formats timestamps written into comments and the text log.
const CommentTimeLayout = "2006-01-02 15:04:05"

// SummaryRecord is the persisted outcome of analysing one asset. Records are
// appended once and never rewritten.
type SummaryRecord struct {
	OriginalFilename       string    `json:"original_filename"`
	NewFilename            string    `json:"new_filename"`
	Importance             int       `json:"importance"`
	Reason                 string    `json:"reason"`
	FullDescription        string    `json:"full_description"`
	DurationSeconds        float64   `json:"duration_seconds"`
	Description            string    `json:"description"`
	AdditionalDescriptions []string  `json:"additional_descriptions"`
	Transcript             *string   `json:"transcript"`
	ProcessedAt            time.Time `json:"processed_at"`
	Path                   string    `json:"path"`
}

// Comment renders the file comment written after a successful analysis.
func Comment(importance int, fullDescription string) string {
	return fmt.Sprintf("Importance %d/9: %s", importance, strings.TrimSpace(fullDescription))
}

// TimestampComment renders the comment written in comment-only mode.
func TimestampComment(at time.Time) string {
	return "Processed " + at.Format(CommentTimeLayout)
}

// Text renders the record as a block for the human-readable log.
func (r SummaryRecord) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", r.ProcessedAt.Local().Format(CommentTimeLayout))
	fmt.Fprintf(&b, "Original: %s\n", r.OriginalFilename)
	fmt.Fprintf(&b, "Renamed:  %s\n", r.NewFilename)
	fmt.Fprintf(&b, "Path:     %s\n", r.Path)
	fmt.Fprintf(&b, "Importance: %d (%s)\n", r.Importance, r.Reason)
	fmt.Fprintf(&b, "Duration: %.1fs\n", r.DurationSeconds)
	fmt.Fprintf(&b, "Description: %s\n", r.Description)
	if len(r.AdditionalDescriptions) > 0 {
		b.WriteString("Additional scenes:\n")
		for i, desc := range r.AdditionalDescriptions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, desc)
		}
	}
	switch {
	case r.Transcript == nil:
		b.WriteString("Transcript: (not transcribed)\n")
	case strings.TrimSpace(*r.Transcript) == "":
		b.WriteString("Transcript: (no speech)\n")
	default:
		fmt.Fprintf(&b, "Transcript: %s\n", strings.TrimSpace(*r.Transcript))
	}
	fmt.Fprintf(&b, "Summary: %s\n\n", r.FullDescription)
	return b.String()
}
