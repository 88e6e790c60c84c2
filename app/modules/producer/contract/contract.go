// Package contract is the producer-side copy of the match submission wire
// format. It is deliberately not shared with the consumer: each side owns
// its model and validates independently against the same canonical schema,
// and the conformance test keeps the two in agreement. Schema changes must
// land on both sides.
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

// MatchMessage is one match submission as published to the queue.
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

func matchMessageStructLevel(sl validator.StructLevel) {
	msg := sl.Current().Interface().(MatchMessage)
	if strings.EqualFold(msg.MatchType, MatchTypeLeague) {
		if msg.Division == nil || strings.TrimSpace(*msg.Division) == "" {
			sl.ReportError(msg.Division, "Division", "division", "required_for_league", "")
		}
	}
}

// Validate checks the message against the schema before publish, so that a
// bad scrape fails fast at the call site instead of poisoning the queue.
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

// Decode unmarshals and validates a raw payload. Used by the conformance
// test to compare producer and consumer acceptance.
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
