package services

// Event types published to the message broker.
const (
	EventUserRegistered  = "user.registered"
	EventChampionCreated = "champion.created"
)

// EventPublisher publishes account events. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	PublishEvent(eventType string, payload map[string]interface{}) error
}
