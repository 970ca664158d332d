package domain

import "time"

// Message is a direct message between two identities. The durable store owns
// the canonical copy; ID is assigned at save time. Read only ever moves from
// false to true.
type Message struct {
	ID        string    `json:"id"`
	From      Identity  `json:"from"`
	To        Identity  `json:"to"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

func NewMessage(from, to Identity, text string, timestamp time.Time) Message {
	return Message{
		From:      from,
		To:        to,
		Text:      text,
		Timestamp: timestamp,
		Read:      false,
	}
}
