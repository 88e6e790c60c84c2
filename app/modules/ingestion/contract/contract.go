// Package contract defines the consumer-side view of the match submission
// wire format. The producer keeps its own copy of this model; the two are
// kept in sync by the conformance test, not by a shared package, so that
// producer and consumer deploy independently.
package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MatchTypeLeague is the match-type label whose fixtures require a division.
const MatchTypeLeague = "League"

// Status labels accepted on the wire.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusPostponed = "postponed"
	StatusCancelled = "cancelled"
)

// MatchMessage is one scraped match submission. Team and division fields are
// free text; resolution against the reference tables happens downstream.
type MatchMessage struct {
	HomeTeam  string  `json:"home_team" validate:"required"`
	AwayTeam  string  `json:"away_team" validate:"required"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Season    string  `json:"season" validate:"required"`
	AgeGroup  string  `json:"age_group" validate:"required"`
	MatchType string  `json:"match_type" validate:"required"`
	Division  *string `json:"division"`
	ScoreHome *int    `json:"score_home" validate:"omitempty,gte=0"`
	ScoreAway *int    `json:"score_away" validate:"omitempty,gte=0"`
	Status    *string `json:"status" validate:"omitempty,oneof=scheduled completed postponed cancelled"`
	MatchID   *string `json:"match_id"`
	Location  *string `json:"location"`
	Notes     *string `json:"notes"`
}

// FieldError names a single offending field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every field that failed schema validation.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "invalid match message: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(matchMessageStructLevel, MatchMessage{})
	return v
}

// matchMessageStructLevel enforces the league/division invariant: a league
// fixture without a division label is malformed, not merely unresolvable.
func matchMessageStructLevel(sl validator.StructLevel) {
	msg := sl.Current().Interface().(MatchMessage)
	if strings.EqualFold(msg.MatchType, MatchTypeLeague) {
		if msg.Division == nil || strings.TrimSpace(*msg.Division) == "" {
			sl.ReportError(msg.Division, "Division", "division", "required_for_league", "")
		}
	}
}

// Validate checks the message against the schema. It never touches the
// database; unknown-entity detection belongs to the resolver.
func (m *MatchMessage) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("contract validation failed: %w", err)
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:  jsonFieldName(fe.Field()),
			Reason: fe.Tag(),
		})
	}
	return out
}

// Decode unmarshals and validates a raw payload in one step. Both malformed
// JSON and schema violations come back as contract errors.
func Decode(data []byte) (*MatchMessage, error) {
	var msg MatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "payload", Reason: "malformed json"}}}
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// jsonFieldName maps struct field names to their wire names for error
// reporting.
func jsonFieldName(structField string) string {
	switch structField {
	case "HomeTeam":
		return "home_team"
	case "AwayTeam":
		return "away_team"
	case "Date":
		return "date"
	case "Season":
		return "season"
	case "AgeGroup":
		return "age_group"
	case "MatchType":
		return "match_type"
	case "Division":
		return "division"
	case "ScoreHome":
		return "score_home"
	case "ScoreAway":
		return "score_away"
	case "Status":
		return "status"
	case "MatchID":
		return "match_id"
	case "Location":
		return "location"
	case "Notes":
		return "notes"
	}
	return structField
}

// IsLeague reports whether the message denotes a league fixture.
func (m *MatchMessage) IsLeague() bool {
	return strings.EqualFold(m.MatchType, MatchTypeLeague)
}
