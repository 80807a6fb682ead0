// Package types provides type definitions for structured data used throughout the idea prioritizer.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DatasetMetrics lists the metric names every evaluation prompt refers to.
const DatasetMetrics = "Estimated Engineering Hours, Teams Required, Cross-Team Dependencies, Implementation Risk, " +
	"Estimated Revenue Uplift, Estimated Users Affected, Impact on Retention, Strategic Alignment"

// Idea is a candidate product or feature idea from the catalog.
// Ideas are loaded once per run and never modified.
type Idea struct {
	ID                 int    `json:"idea_id"`
	Title              string `json:"idea_title"`
	Text               string `json:"idea_text"`
	SubmitterAge       int    `json:"Submitted_By_Age_Range"`
	StrategicAlignment string `json:"Strategic_Alignment"`
}

// IdeaID identifies an idea in oracle output. Catalog ids are numeric, but the
// error sentinel uses the string "Error", so both forms round-trip.
type IdeaID struct {
	raw string
}

// NumericID returns an IdeaID for a catalog id.
func NumericID(id int) IdeaID {
	return IdeaID{raw: strconv.Itoa(id)}
}

// TextID returns an IdeaID holding an arbitrary label.
func TextID(label string) IdeaID {
	return IdeaID{raw: label}
}

// String returns the id as text.
func (id IdeaID) String() string {
	return id.raw
}

// Int returns the numeric id and whether the id is numeric.
func (id IdeaID) Int() (int, bool) {
	n, err := strconv.Atoi(id.raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MarshalJSON writes numeric ids as JSON numbers and everything else as strings.
func (id IdeaID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(id.raw)
}

// UnmarshalJSON accepts a JSON number or string.
func (id *IdeaID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		id.raw = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		id.raw = s
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("idea_id must be a number or string: %w", err)
	}
	if f == float64(int(f)) {
		id.raw = strconv.Itoa(int(f))
	} else {
		id.raw = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return nil
}
