package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ponyo877/livetalk/server/domain"
)

// Relay routes messages between a sender and a recipient. Every message is
// persisted regardless of delivery outcome; delivery to a live handle is
// best-effort and its failure is never surfaced to the sender.
type Relay struct {
	registry    Registry
	broadcaster Broadcaster
	repo        Repository
	now         func() time.Time
}

func NewRelay(registry Registry, broadcaster Broadcaster, repo Repository) *Relay {
	return &Relay{
		registry:    registry,
		broadcaster: broadcaster,
		repo:        repo,
		now:         time.Now,
	}
}

// Send validates, persists, and routes one message. Persistence comes before
// delivery: a message that cannot be saved is never delivered, and a saved
// message whose recipient is offline stays retrievable via History.
func (r *Relay) Send(fromRaw, toRaw, text string) (domain.Message, error) {
	from, err := domain.NormalizeIdentity(fromRaw)
	if err != nil {
		return domain.Message{}, fmt.Errorf("invalid sender: %w", err)
	}
	to, err := domain.NormalizeIdentity(toRaw)
	if err != nil {
		return domain.Message{}, fmt.Errorf("invalid recipient: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, domain.ErrEmptyMessage
	}

	message := domain.NewMessage(from, to, text, r.now())
	saved, err := r.repo.SaveMessage(message)
	if err != nil {
		return domain.Message{}, fmt.Errorf("persisting message: %w", err)
	}

	if conn, ok := r.registry.Lookup(to); ok {
		if err := r.broadcaster.SendTo(conn, domain.NewMessageEvent(saved)); err != nil {
			slog.Debug("recipient handle gone", "to", to, "conn", conn.ID(), "error", err)
		}
	}

	// A self-message already reached the only registered handle above;
	// echoing it again would deliver twice to the same connection.
	if from != to {
		if conn, ok := r.registry.Lookup(from); ok {
			if err := r.broadcaster.SendTo(conn, domain.NewEchoEvent(saved)); err != nil {
				slog.Debug("sender handle gone", "from", from, "conn", conn.ID(), "error", err)
			}
		}
	}

	return saved, nil
}

// History returns the conversation between two identities, merged across both
// orderings of the pair, oldest first. No messages yet is an empty result,
// not an error.
func (r *Relay) History(aRaw, bRaw string) ([]domain.Message, error) {
	a, err := domain.NormalizeIdentity(aRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid participant: %w", err)
	}
	b, err := domain.NormalizeIdentity(bRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid participant: %w", err)
	}

	messages, err := r.repo.ListConversation(a, b)
	if err != nil {
		return nil, fmt.Errorf("listing conversation: %w", err)
	}
	return messages, nil
}

// MarkRead flags every message addressed to user in the conversation with
// counterpart as read. Re-invoking on an already-read conversation is a no-op.
func (r *Relay) MarkRead(userRaw, counterpartRaw string) error {
	user, err := domain.NormalizeIdentity(userRaw)
	if err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}
	counterpart, err := domain.NormalizeIdentity(counterpartRaw)
	if err != nil {
		return fmt.Errorf("invalid counterpart: %w", err)
	}

	if err := r.repo.MarkRead(user, counterpart); err != nil {
		return fmt.Errorf("marking conversation read: %w", err)
	}
	return nil
}

// UnreadCount reports how many messages from counterpart the user has not
// read yet.
func (r *Relay) UnreadCount(userRaw, counterpartRaw string) (int, error) {
	user, err := domain.NormalizeIdentity(userRaw)
	if err != nil {
		return 0, fmt.Errorf("invalid user: %w", err)
	}
	counterpart, err := domain.NormalizeIdentity(counterpartRaw)
	if err != nil {
		return 0, fmt.Errorf("invalid counterpart: %w", err)
	}

	count, err := r.repo.CountUnread(user, counterpart)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return count, nil
}
