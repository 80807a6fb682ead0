package types

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// ScoreNotFound is the composite score used when no score could be parsed.
	ScoreNotFound = 0
	// JustificationNotFound is the justification used when none could be parsed.
	JustificationNotFound = "Justification not found."
	// ErrorIdeaID marks sentinel records produced by failed extraction or ranking.
	ErrorIdeaID = "Error"
	// MaxScore is the upper bound of the composite score scale.
	MaxScore = 10
)

// Evaluation is the parsed phase-two judgment for one idea.
type Evaluation struct {
	IdeaID         IdeaID `json:"idea_id"`
	CompositeScore int    `json:"composite_score"`
	Justification  string `json:"justification"`
}

// RankedIdea is one entry of the final top-N list returned by the ranking oracle.
type RankedIdea struct {
	IdeaID         IdeaID `json:"idea_id"`
	IdeaSummary    string `json:"idea_summary,omitempty"`
	CompositeScore Score  `json:"composite_score"`
	Justification  string `json:"justification"`
}

// IsError reports whether the entry is the error sentinel.
func (r RankedIdea) IsError() bool {
	return r.IdeaID.String() == ErrorIdeaID
}

// ErrorRecord returns the sentinel record substituted for unusable oracle output.
func ErrorRecord(reason string) RankedIdea {
	return RankedIdea{
		IdeaID:         TextID(ErrorIdeaID),
		CompositeScore: 0,
		Justification:  reason,
	}
}

// Score is a composite score decoded leniently from oracle output.
type Score int

var scoreFraction = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*(?:(?:/|out of)\s*10)?\s*$`)

// UnmarshalJSON accepts numbers, numeric strings, "N/10" and "N out of 10".
// Fractional scores round to the nearest integer.
func (s *Score) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = 0
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		m := scoreFraction.FindStringSubmatch(text)
		if m == nil {
			return fmt.Errorf("composite_score %q is not a number", text)
		}
		trimmed = m[1]
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fmt.Errorf("composite_score %s is not a number: %w", trimmed, err)
	}
	*s = Score(math.Round(f))
	return nil
}
