package eventbus

// Stream and subject names for the match-ingestion pipeline. The single
// logical "matchsync" stream carries both the inbound submissions and the
// downstream ingested notifications.
const (
	StreamName = "matchsync"

	// MatchSubmittedTopic carries contract-validated match submissions from
	// producers to the ingestion worker pool.
	MatchSubmittedTopic = "matchsync.match.submitted.v1"

	// MatchIngestedTopic announces successfully persisted matches for
	// downstream consumers (standings recalculation and the like).
	MatchIngestedTopic = "matchsync.match.ingested.v1"
)

// Subjects returns every subject the matchsync stream must retain.
func Subjects() []string {
	return []string{MatchSubmittedTopic, MatchIngestedTopic}
}
