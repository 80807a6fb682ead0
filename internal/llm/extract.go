package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/idea-prioritizer/internal/types"
)

// NoJSONReason is the sentinel justification used when a response holds no JSON span.
const NoJSONReason = "Could not extract JSON."

// ErrNoJSON is returned by ExtractJSON when the response holds no bracketed span.
var ErrNoJSON = errors.New("no JSON found in response")

var (
	// literal backslash escapes left behind by some runtimes
	escapeNoise = regexp.MustCompile(`\\[nrt]`)
	// "composite_score": 7/10 -> "composite_score": 7
	scoreSuffix = regexp.MustCompile(`"([^"]*)":\s*(\d+)/10`)
	// first greedy array or object span, across newlines
	jsonSpan = regexp.MustCompile(`(?s)(\[.*\]|\{.*\})`)

	quoteNormalizer = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"„", `"`,
		"‟", `"`,
		"″", `"`,
	)
)

// Sentinel returns the error record substituted for unusable oracle output.
func Sentinel(reason string) map[string]any {
	return map[string]any{
		"idea_id":         types.ErrorIdeaID,
		"composite_score": float64(types.ScoreNotFound),
		"justification":   reason,
	}
}

// ExtractJSON pulls the first JSON array or object out of a model response.
//
// raw may be a string, a byte slice, a Completion, or a decoded record exposing
// "text" or "message.content". A value ExtractJSON already produced (a decoded
// array or a record with neither field) is returned unchanged. The returned
// value is always usable: on failure it is the Sentinel record and the error
// says why. ExtractJSON never panics.
func ExtractJSON(raw any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("%v", r)
			value, err = Sentinel(reason), fmt.Errorf("extraction panicked: %s", reason)
		}
	}()

	if decoded, ok := alreadyDecoded(raw); ok {
		return decoded, nil
	}

	content := NormalizeResponse(raw)

	span := jsonSpan.FindString(content)
	if span == "" {
		return Sentinel(NoJSONReason), ErrNoJSON
	}

	var parsed any
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return Sentinel(err.Error()), fmt.Errorf("failed to decode JSON span: %w", err)
	}
	return parsed, nil
}

func alreadyDecoded(raw any) (any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case map[string]any:
		if _, ok := v["text"].(string); ok {
			return nil, false
		}
		if _, ok := v["message"].(map[string]any); ok {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

// NormalizeResponse flattens raw into a single string and removes the formatting
// noise that keeps model output from parsing as JSON.
func NormalizeResponse(raw any) string {
	content := responseText(raw)
	content = escapeNoise.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)
	content = scoreSuffix.ReplaceAllString(content, `"$1": $2`)
	return quoteNormalizer.Replace(content)
}

// responseText prefers a "text" field, then "message.content", then the raw value itself.
func responseText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case Completion:
		return v.Text
	case *Completion:
		if v == nil {
			return ""
		}
		return v.Text
	case map[string]string:
		if text := v["text"]; text != "" {
			return text
		}
		return marshalFallback(v)
	case map[string]any:
		if text, ok := v["text"].(string); ok && text != "" {
			return text
		}
		if msg, ok := v["message"].(map[string]any); ok {
			if content, ok := msg["content"].(string); ok {
				return content
			}
		}
		return marshalFallback(v)
	case fmt.Stringer:
		return v.String()
	default:
		return marshalFallback(v)
	}
}

func marshalFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
