package repository

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/ponyo877/livetalk/server/domain"
	"github.com/ponyo877/livetalk/server/usecase"
)

var ErrNotFound = errors.New("not found")

var ErrAlreadyExists = errors.New("already exists")

// Repository is the durable store over sqlite. Message IDs are monotonic
// ULIDs, so within one store lexicographic ID order equals insertion order;
// conversation reads sort by timestamp first and ID second, which gives the
// stable tie-break for messages persisted in the same instant.
type Repository struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewRepository(db *sql.DB) (usecase.Repository, error) {
	r := &Repository{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	if err := r.init(); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return r, nil
}

func (r *Repository) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			identity TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			status_message TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT 'default.png',
			status TEXT NOT NULL DEFAULT 'offline',
			last_seen INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,
			text TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			read INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			owner TEXT NOT NULL,
			contact TEXT NOT NULL,
			UNIQUE(owner, contact)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender, recipient, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient, sender, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_favorites_owner ON favorites(owner)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) nextID(at time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(at), r.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (r *Repository) SaveMessage(message domain.Message) (domain.Message, error) {
	id, err := r.nextID(message.Timestamp)
	if err != nil {
		return domain.Message{}, fmt.Errorf("generating message id: %w", err)
	}

	query := "INSERT INTO messages (id, sender, recipient, text, timestamp, read) VALUES (?, ?, ?, ?, ?, ?)"
	if _, err := r.db.Exec(query,
		id, message.From.String(), message.To.String(), message.Text,
		message.Timestamp.UnixNano(), message.Read,
	); err != nil {
		return domain.Message{}, fmt.Errorf("inserting message: %w", err)
	}

	message.ID = id
	return message, nil
}

func (r *Repository) ListConversation(a, b domain.Identity) ([]domain.Message, error) {
	query := `
		SELECT id, sender, recipient, text, timestamp, read
		FROM messages
		WHERE (sender = ? AND recipient = ?) OR (sender = ? AND recipient = ?)
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := r.db.Query(query, a.String(), b.String(), b.String(), a.String())
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		var sender, recipient string
		var nanos int64
		if err := rows.Scan(&m.ID, &sender, &recipient, &m.Text, &nanos, &m.Read); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.From = domain.Identity(sender)
		m.To = domain.Identity(recipient)
		m.Timestamp = time.Unix(0, nanos).UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation: %w", err)
	}
	return messages, nil
}

func (r *Repository) MarkRead(user, counterpart domain.Identity) error {
	query := "UPDATE messages SET read = 1 WHERE recipient = ? AND sender = ? AND read = 0"
	if _, err := r.db.Exec(query, user.String(), counterpart.String()); err != nil {
		return fmt.Errorf("marking messages read: %w", err)
	}
	return nil
}

func (r *Repository) CountUnread(user, counterpart domain.Identity) (int, error) {
	query := "SELECT COUNT(*) FROM messages WHERE recipient = ? AND sender = ? AND read = 0"
	var count int
	if err := r.db.QueryRow(query, user.String(), counterpart.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return count, nil
}

// SetPresence upserts the presence columns of the user row. An identity that
// joins before ever registering a profile gets a row created implicitly.
func (r *Repository) SetPresence(identity domain.Identity, status domain.Status, lastSeen time.Time) error {
	query := `
		INSERT INTO users (identity, display_name, status, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET status = excluded.status, last_seen = excluded.last_seen
	`
	if _, err := r.db.Exec(query, identity.String(), identity.String(), string(status), lastSeen.UnixNano()); err != nil {
		return fmt.Errorf("upserting presence: %w", err)
	}
	return nil
}

func (r *Repository) CreateUser(user domain.User) error {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users WHERE identity = ?", user.Identity.String()).Scan(&count); err != nil {
		return fmt.Errorf("checking user existence: %w", err)
	}
	if count > 0 {
		return ErrAlreadyExists
	}

	query := "INSERT INTO users (identity, display_name, status_message, avatar, status, last_seen) VALUES (?, ?, ?, ?, ?, ?)"
	if _, err := r.db.Exec(query,
		user.Identity.String(), user.DisplayName, user.StatusMessage, user.Avatar,
		string(user.Status), user.LastSeen.UnixNano(),
	); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(identity domain.Identity) (domain.User, error) {
	query := "SELECT identity, display_name, status_message, avatar, status, last_seen FROM users WHERE identity = ?"
	var user domain.User
	var id, status string
	var nanos int64
	if err := r.db.QueryRow(query, identity.String()).Scan(
		&id, &user.DisplayName, &user.StatusMessage, &user.Avatar, &status, &nanos,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("querying user: %w", err)
	}
	user.Identity = domain.Identity(id)
	user.Status = domain.Status(status)
	user.LastSeen = time.Unix(0, nanos).UTC()
	return user, nil
}

func (r *Repository) UpdateUser(user domain.User) error {
	query := "UPDATE users SET display_name = ?, status_message = ?, avatar = ? WHERE identity = ?"
	result, err := r.db.Exec(query, user.DisplayName, user.StatusMessage, user.Avatar, user.Identity.String())
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListUsers() ([]domain.User, error) {
	query := "SELECT identity, display_name, status_message, avatar, status, last_seen FROM users ORDER BY identity"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var user domain.User
		var id, status string
		var nanos int64
		if err := rows.Scan(&id, &user.DisplayName, &user.StatusMessage, &user.Avatar, &status, &nanos); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		user.Identity = domain.Identity(id)
		user.Status = domain.Status(status)
		user.LastSeen = time.Unix(0, nanos).UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

func (r *Repository) AddFavorite(owner, contact domain.Identity) error {
	query := "INSERT OR IGNORE INTO favorites (owner, contact) VALUES (?, ?)"
	if _, err := r.db.Exec(query, owner.String(), contact.String()); err != nil {
		return fmt.Errorf("inserting favorite: %w", err)
	}
	return nil
}

func (r *Repository) RemoveFavorite(owner, contact domain.Identity) error {
	query := "DELETE FROM favorites WHERE owner = ? AND contact = ?"
	if _, err := r.db.Exec(query, owner.String(), contact.String()); err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	return nil
}

func (r *Repository) ListFavorites(owner domain.Identity) ([]domain.Identity, error) {
	query := "SELECT contact FROM favorites WHERE owner = ? ORDER BY contact"
	rows, err := r.db.Query(query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	favorites := []domain.Identity{}
	for rows.Next() {
		var contact string
		if err := rows.Scan(&contact); err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		favorites = append(favorites, domain.Identity(contact))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating favorites: %w", err)
	}
	return favorites, nil
}
