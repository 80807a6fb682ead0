package evaluation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/idea-prioritizer/internal/types"
)

// ParsedResponse is the structured content of a phase-two response.
type ParsedResponse struct {
	Score              int
	Justification      string
	ScoreFound         bool
	JustificationFound bool
}

// ResponseParser turns a raw phase-two response into a score and justification.
// Implementations must not fail: anything missing is reported through the
// Found flags and filled with the sentinel values.
type ResponseParser interface {
	Parse(text string) ParsedResponse
}

// LabelParser reads the labelled grammar requested by the finalize prompt:
//
//	Composite Score: <int>/10
//	Justification: <rest of the response>
//
// The justification runs to the end of the text, across lines.
// Scores above the scale maximum are clamped to it.
type LabelParser struct{}

var (
	compositeScorePattern = regexp.MustCompile(`Composite Score:\s*(\d+)/10`)
	justificationPattern  = regexp.MustCompile(`(?s)Justification:\s*(.+)`)
)

// Parse implements ResponseParser.
func (LabelParser) Parse(text string) ParsedResponse {
	out := ParsedResponse{
		Score:         types.ScoreNotFound,
		Justification: types.JustificationNotFound,
	}

	if m := compositeScorePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			out.Score = min(n, types.MaxScore)
			out.ScoreFound = true
		}
	}

	if m := justificationPattern.FindStringSubmatch(text); m != nil {
		if j := strings.TrimSpace(m[1]); j != "" {
			out.Justification = j
			out.JustificationFound = true
		}
	}

	return out
}
