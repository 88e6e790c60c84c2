package ingestionservice

import "fmt"

// ResolutionCode identifies why a free-text label could not be resolved.
// Codes are stable strings surfaced in TaskResults for callers.
type ResolutionCode string

const (
	CodeUnknownTeam            ResolutionCode = "UNKNOWN_TEAM"
	CodeUnknownSeason          ResolutionCode = "UNKNOWN_SEASON"
	CodeUnknownAgeGroup        ResolutionCode = "UNKNOWN_AGE_GROUP"
	CodeUnknownMatchType       ResolutionCode = "UNKNOWN_MATCH_TYPE"
	CodeUnknownDivision        ResolutionCode = "UNKNOWN_DIVISION"
	CodeMissingDivision        ResolutionCode = "MISSING_DIVISION_FOR_LEAGUE_MATCH"
	CodeContractViolation      ResolutionCode = "CONTRACT_VIOLATION"
	CodeImmutableFieldMismatch ResolutionCode = "IMMUTABLE_FIELD_MISMATCH"
)

// ResolutionError is a terminal business failure: retrying the same message
// cannot succeed without upstream data correction, so it is reported to the
// TaskResult instead of blocking the queue.
type ResolutionError struct {
	Code  ResolutionCode
	Label string
}

func (e *ResolutionError) Error() string {
	if e.Label == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %q", e.Code, e.Label)
}

func UnknownTeam(name string) *ResolutionError {
	return &ResolutionError{Code: CodeUnknownTeam, Label: name}
}

func UnknownSeason(label string) *ResolutionError {
	return &ResolutionError{Code: CodeUnknownSeason, Label: label}
}

func UnknownAgeGroup(label string) *ResolutionError {
	return &ResolutionError{Code: CodeUnknownAgeGroup, Label: label}
}

func UnknownMatchType(label string) *ResolutionError {
	return &ResolutionError{Code: CodeUnknownMatchType, Label: label}
}

func UnknownDivision(name string) *ResolutionError {
	return &ResolutionError{Code: CodeUnknownDivision, Label: name}
}

func MissingDivisionForLeagueMatch() *ResolutionError {
	return &ResolutionError{Code: CodeMissingDivision}
}

// ImmutableMismatchError reports a submission whose external match id points
// at an existing row with different team identities or date. The row is
// never silently overwritten; the mismatch goes to manual review.
type ImmutableMismatchError struct {
	ExternalMatchID string
	Detail          string
}

func (e *ImmutableMismatchError) Error() string {
	return fmt.Sprintf("immutable field mismatch for match %q: %s", e.ExternalMatchID, e.Detail)
}
