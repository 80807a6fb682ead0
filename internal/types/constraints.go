package types

import (
	"fmt"
	"strings"
)

// Form keys carried over from the intake form. Values are free-form strings.
const (
	FormEngineeringHours = "Available Engineering Hours"
	FormBudget           = "Available Budget"
	FormTeamCount        = "Number of Available Teams"
	FormTimeline         = "Expected Timeline"
	FormPriorityFocus    = "Priority Focus Area"
)

// Constraints holds the five resource bands a run is ranked against.
// Values are interpolated verbatim into prompts; nothing is validated.
type Constraints struct {
	EngineeringHours string `json:"available_eng_hrs"`
	Budget           string `json:"available_budget"`
	TeamCount        string `json:"teams_available"`
	Timeline         string `json:"expected_timeline"`
	PriorityFocus    string `json:"priority_focus"`
}

// ConstraintsFromForm builds Constraints from the fixed form keys.
// Missing keys become empty strings.
func ConstraintsFromForm(form map[string]string) Constraints {
	return Constraints{
		EngineeringHours: form[FormEngineeringHours],
		Budget:           form[FormBudget],
		TeamCount:        form[FormTeamCount],
		Timeline:         form[FormTimeline],
		PriorityFocus:    form[FormPriorityFocus],
	}
}

// Form returns the constraints keyed by form field name.
func (c Constraints) Form() map[string]string {
	return map[string]string{
		FormEngineeringHours: c.EngineeringHours,
		FormBudget:           c.Budget,
		FormTeamCount:        c.TeamCount,
		FormTimeline:         c.Timeline,
		FormPriorityFocus:    c.PriorityFocus,
	}
}

// Sentence renders the constraints as the natural-language sentence used in prompts.
func (c Constraints) Sentence() string {
	return fmt.Sprintf(
		"The user has approximately %s engineering hours available, "+
			"a budget of %s, and %s team(s) that can work on the project. "+
			"The expected delivery timeline is %s weeks, with a primary focus on %s.",
		c.EngineeringHours, c.Budget, c.TeamCount, c.Timeline, strings.ToLower(c.PriorityFocus),
	)
}
