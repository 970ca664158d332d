package domain

type EventType string

const (
	EventPresenceChanged EventType = "presence_changed"
	EventMessageReceived EventType = "message_received"
	EventMessageSentEcho EventType = "message_sent_echo"
)

// Event is a server-to-client notification pushed over a live connection.
// Exactly one of the payload fields is populated, depending on Type.
type Event struct {
	Type     EventType `json:"type"`
	Identity Identity  `json:"identity,omitempty"`
	Status   Status    `json:"status,omitempty"`
	Message  *Message  `json:"message,omitempty"`
}

func NewPresenceEvent(identity Identity, status Status) Event {
	return Event{
		Type:     EventPresenceChanged,
		Identity: identity,
		Status:   status,
	}
}

func NewMessageEvent(message Message) Event {
	return Event{
		Type:    EventMessageReceived,
		Message: &message,
	}
}

func NewEchoEvent(message Message) Event {
	return Event{
		Type:    EventMessageSentEcho,
		Message: &message,
	}
}

func (e Event) IsValid() bool {
	switch e.Type {
	case EventPresenceChanged:
		return e.Identity != "" && (e.Status == StatusOnline || e.Status == StatusOffline)
	case EventMessageReceived, EventMessageSentEcho:
		return e.Message != nil
	default:
		return false
	}
}
