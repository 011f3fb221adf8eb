package outbox

// Event is a pending outbox row. EventType doubles as the Kafka topic.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventNotificationSent   = "notification.sent.v1"
	EventNotificationFailed = "notification.failed.v1"
)
