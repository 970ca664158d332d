package usecase

import (
	"time"

	"github.com/ponyo877/livetalk/server/domain"
)

// Repository is the durable store contract. Implementations own their own
// timeout and retry policy; nothing here is retried by the callers.
type Repository interface {
	// Message
	SaveMessage(message domain.Message) (domain.Message, error)
	ListConversation(a, b domain.Identity) ([]domain.Message, error)
	MarkRead(user, counterpart domain.Identity) error
	CountUnread(user, counterpart domain.Identity) (int, error)

	// Presence
	SetPresence(identity domain.Identity, status domain.Status, lastSeen time.Time) error

	// User
	CreateUser(user domain.User) error
	GetUser(identity domain.Identity) (domain.User, error)
	UpdateUser(user domain.User) error
	ListUsers() ([]domain.User, error)

	// Favorite
	AddFavorite(owner, contact domain.Identity) error
	RemoveFavorite(owner, contact domain.Identity) error
	ListFavorites(owner domain.Identity) ([]domain.Identity, error)
}

// Registry maps canonical identities to live connection handles.
type Registry interface {
	Register(identity domain.Identity, conn *domain.Conn)
	Lookup(identity domain.Identity) (*domain.Conn, bool)
	Unregister(identity domain.Identity, conn *domain.Conn) bool
	Count() int
}

// Broadcaster pushes events toward connected clients.
type Broadcaster interface {
	SendTo(conn *domain.Conn, event domain.Event) error
	Broadcast(event domain.Event)
}
