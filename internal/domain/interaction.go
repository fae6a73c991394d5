package domain

// Interaction is one paid query and its outcome.
type Interaction struct {
	InteractionID uint64            `json:"interaction_id"`
	AgentID       uint32            `json:"agent_id"`
	Caller        string            `json:"caller"`
	Query         string            `json:"query"`
	Response      *string           `json:"response"`
	Message       *string           `json:"message,omitempty"`
	Status        InteractionStatus `json:"status"`
	CreatedAt     int64             `json:"created_at"`
	CompletedAt   *int64            `json:"completed_at"`
	FeePaid       uint64            `json:"fee_paid"`
}

// DisplayText returns the text to show the caller: the response once
// completed, the failure message once failed, empty while pending.
func (i *Interaction) DisplayText() string {
	switch i.Status {
	case InteractionStatusCompleted:
		if i.Response != nil {
			return *i.Response
		}
	case InteractionStatusFailed:
		if i.Message != nil {
			return *i.Message
		}
	}
	return ""
}

// InteractionEvent is pushed to websocket watchers.
type InteractionEvent struct {
	Type        EventType    `json:"type"`
	Ts          int64        `json:"ts"`
	Interaction *Interaction `json:"interaction,omitempty"`
	DisplayText string       `json:"display_text,omitempty"`
	Error       string       `json:"error,omitempty"`
}
