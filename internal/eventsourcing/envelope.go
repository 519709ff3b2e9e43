// Package eventsourcing defines the generic event envelope and the
// aggregate contract that every domain module implements.
package eventsourcing

import (
	"encoding/json"
	"time"
)

// Envelope wraps a single domain event with the metadata the store and
// the CDC fan-out engine need to route, order, and trace it. E is the
// concrete domain event payload type.
type Envelope[E any] struct {
	AggregateID    string
	SequenceNumber int64
	EventID        string
	EventType      string
	EventVersion   int
	EventData      E
	CausationID    string // optional: empty means "no known cause"
	CorrelationID  string // required: traces a logical workflow
	Timestamp      time.Time
}

// RawEnvelope is the wire/storage shape of Envelope before the payload is
// decoded into a concrete E. The event store and CDC runtime both operate
// on RawEnvelope; callers decode EventData once they know which E to use.
type RawEnvelope struct {
	AggregateID    string
	SequenceNumber int64
	EventID        string
	EventType      string
	EventVersion   int
	EventData      json.RawMessage
	CausationID    string
	CorrelationID  string
	Timestamp      time.Time
}

// Decode unmarshals the raw payload into a concrete event type.
func Decode[E any](raw RawEnvelope) (Envelope[E], error) {
	var data E
	if len(raw.EventData) > 0 {
		if err := json.Unmarshal(raw.EventData, &data); err != nil {
			return Envelope[E]{}, &DeserializationError{Cause: err}
		}
	}
	return Envelope[E]{
		AggregateID:    raw.AggregateID,
		SequenceNumber: raw.SequenceNumber,
		EventID:        raw.EventID,
		EventType:      raw.EventType,
		EventVersion:   raw.EventVersion,
		EventData:      data,
		CausationID:    raw.CausationID,
		CorrelationID:  raw.CorrelationID,
		Timestamp:      raw.Timestamp,
	}, nil
}

// Encode marshals a concrete envelope back into its raw, storable shape.
func Encode[E any](env Envelope[E]) (RawEnvelope, error) {
	body, err := json.Marshal(env.EventData)
	if err != nil {
		return RawEnvelope{}, &SerializationError{Cause: err}
	}
	return RawEnvelope{
		AggregateID:    env.AggregateID,
		SequenceNumber: env.SequenceNumber,
		EventID:        env.EventID,
		EventType:      env.EventType,
		EventVersion:   env.EventVersion,
		EventData:      body,
		CausationID:    env.CausationID,
		CorrelationID:  env.CorrelationID,
		Timestamp:      env.Timestamp,
	}, nil
}

// DomainEvent is the contract a concrete event payload type must satisfy:
// a stable type tag and a schema version, used to populate EventType and
// EventVersion on the envelope without the caller repeating string
// literals at every call site.
type DomainEvent interface {
	EventType() string
	EventVersion() int
}
