package domain

import "github.com/cskr/pubsub"

// EventBus is a type-safe publish/subscribe event bus built directly on
// cskr/pubsub. It re-exports pubsub's untyped Sub/Pub/Unsub API for
// multi-topic receivers, and adds a typed generic API (Publish[T]/Topic[T])
// that catches publisher type mismatches at compile time while still
// flowing through the same underlying hub.
type EventBus struct {
	ps *pubsub.PubSub
}

// NewEventBus creates a new EventBus with the given per-subscriber buffer
// capacity, as accepted by pubsub.New.
func NewEventBus(capacity int) *EventBus {
	return &EventBus{ps: pubsub.New(capacity)}
}

// Sub subscribes to one or more topics and returns a channel that receives
// messages published to any of those topics.
func (bus *EventBus) Sub(topics ...string) chan any {
	return bus.ps.Sub(topics...)
}

// Pub publishes msg to all subscribers of the given topics.
func (bus *EventBus) Pub(msg any, topics ...string) {
	bus.ps.Pub(msg, topics...)
}

// Unsub removes ch from the given topics (all topics if none are given).
func (bus *EventBus) Unsub(ch chan any, topics ...string) {
	bus.ps.Unsub(ch, topics...)
}

// ---------------------------------------------------------------------------
// Typed generic API
// ---------------------------------------------------------------------------

// Topic is a typed topic identifier. The type parameter T documents (and
// enforces at compile time) what Go type is published on this topic.
type Topic[T any] struct {
	Name string
}

// NewTopic creates a typed topic with the given name.
func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{Name: name}
}

// Publish sends typed data to all subscribers of topic.
func Publish[T any](bus *EventBus, topic Topic[T], data T) {
	bus.Pub(data, topic.Name)
}

// topicNamer is satisfied by any Topic[T] and allows accepting mixed generic
// topic types in a single variadic argument list.
type topicNamer interface{ TopicName() string }

// TopicName returns the string name of the topic (implements topicNamer).
func (t Topic[T]) TopicName() string { return t.Name }

// SubTopics subscribes to one or more typed topics, extracting the string
// name from each Topic[T] automatically.
func (bus *EventBus) SubTopics(topics ...topicNamer) chan any {
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.TopicName()
	}
	return bus.Sub(names...)
}
