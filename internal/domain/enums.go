// Package domain defines the core domain models for the marketplace.
package domain

// Capability is the kind of work an agent performs.
type Capability string

const (
	CapabilityChatbot        Capability = "chatbot"
	CapabilityTranslation    Capability = "translation"
	CapabilitySentiment      Capability = "sentiment"
	CapabilitySummarization  Capability = "summarization"
	CapabilityJobApplication Capability = "job_application"
)

// Capabilities lists every known capability in catalog order.
var Capabilities = []Capability{
	CapabilityChatbot,
	CapabilityTranslation,
	CapabilitySentiment,
	CapabilitySummarization,
	CapabilityJobApplication,
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityChatbot, CapabilityTranslation, CapabilitySentiment, CapabilitySummarization, CapabilityJobApplication:
		return true
	}
	return false
}

// InteractionStatus represents the status of an interaction.
type InteractionStatus string

const (
	InteractionStatusPending   InteractionStatus = "pending"
	InteractionStatusCompleted InteractionStatus = "completed"
	InteractionStatusFailed    InteractionStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s InteractionStatus) Terminal() bool {
	return s == InteractionStatusCompleted || s == InteractionStatusFailed
}

// EventType represents the type of a pushed interaction event.
type EventType string

const (
	EventTypeInteractionSnapshot EventType = "interaction_snapshot"
	EventTypeInteractionDone     EventType = "interaction_done"
	EventTypeError               EventType = "error"
)
