// Package ingestionevents defines the payloads the ingestion module emits.
// Topic names live in the eventbus package.
package ingestionevents

// MatchIngestedPayloadV1 announces a successfully persisted match to
// downstream consumers.
type MatchIngestedPayloadV1 struct {
	TaskID      string `json:"task_id"`
	MatchID     int64  `json:"match_id"`
	Action      string `json:"action"`
	FallbackKey bool   `json:"fallback_key,omitempty"`
}
