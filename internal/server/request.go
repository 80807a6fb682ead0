package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/jonathan/idea-prioritizer/internal/types"
)

// maxBodyBytes bounds the request body; the payload is five short values.
const maxBodyBytes = 64 << 10

// FormValue is a constraint value sent as a JSON string, number or boolean.
// Non-string values keep their JSON text, so 120 and "120" are equivalent.
type FormValue string

// UnmarshalJSON accepts any JSON scalar.
func (v *FormValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*v = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = FormValue(s)
	case len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['):
		return &ErrInvalidRequest{Message: "constraint values must be strings or numbers"}
	default:
		*v = FormValue(trimmed)
	}
	return nil
}

// TopIdeasRequest is the body of POST /get_top_ideas. Missing keys become "".
type TopIdeasRequest struct {
	AvailableEngHrs  FormValue `json:"available_eng_hrs"`
	AvailableBudget  FormValue `json:"available_budget"`
	TeamsAvailable   FormValue `json:"teams_available"`
	ExpectedTimeline FormValue `json:"expected_timeline"`
	PriorityFocus    FormValue `json:"priority_focus"`
}

// Form maps the request onto the fixed constraint form keys.
func (r TopIdeasRequest) Form() map[string]string {
	return map[string]string{
		types.FormEngineeringHours: string(r.AvailableEngHrs),
		types.FormBudget:           string(r.AvailableBudget),
		types.FormTeamCount:        string(r.TeamsAvailable),
		types.FormTimeline:         string(r.ExpectedTimeline),
		types.FormPriorityFocus:    string(r.PriorityFocus),
	}
}

// Constraints converts the request to pipeline constraints.
func (r TopIdeasRequest) Constraints() types.Constraints {
	return types.ConstraintsFromForm(r.Form())
}

func decodeTopIdeasRequest(body io.Reader) (TopIdeasRequest, error) {
	var req TopIdeasRequest
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes+1))
	if err != nil {
		return req, &ErrInvalidRequest{Message: err.Error()}
	}
	if len(data) > maxBodyBytes {
		return req, &ErrInvalidRequest{Message: "request body too large"}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return req, &ErrInvalidRequest{Message: "request body is empty"}
	}
	if err := json.Unmarshal(data, &req); err != nil {
		var invalid *ErrInvalidRequest
		if errors.As(err, &invalid) {
			return req, err
		}
		return req, &ErrInvalidRequest{Message: "body must be a JSON object: " + err.Error()}
	}
	return req, nil
}
