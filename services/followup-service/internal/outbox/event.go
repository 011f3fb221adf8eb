package outbox

// Event is the envelope written to the outbox table. The Kafka topic name
// equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventFollowupDue = "followup.due.v1"
	EventFollowupDLQ = "followup.dlq.v1"
)
