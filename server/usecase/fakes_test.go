package usecase

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ponyo877/livetalk/server/domain"
)

type presenceCall struct {
	identity domain.Identity
	status   domain.Status
	lastSeen time.Time
}

// fakeRepo is an in-memory stand-in for the sqlite repository.
type fakeRepo struct {
	mu          sync.Mutex
	messages    []domain.Message
	presence    []presenceCall
	users       map[domain.Identity]domain.User
	favorites   map[domain.Identity][]domain.Identity
	seq         int
	saveErr     error
	presenceErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:     make(map[domain.Identity]domain.User),
		favorites: make(map[domain.Identity][]domain.Identity),
	}
}

func (f *fakeRepo) SaveMessage(message domain.Message) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return domain.Message{}, f.saveErr
	}
	f.seq++
	message.ID = "msg-" + strconv.Itoa(f.seq)
	f.messages = append(f.messages, message)
	return message, nil
}

func (f *fakeRepo) ListConversation(a, b domain.Identity) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := []domain.Message{}
	for _, m := range f.messages {
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			result = append(result, m)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (f *fakeRepo) MarkRead(user, counterpart domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.messages {
		if f.messages[i].To == user && f.messages[i].From == counterpart {
			f.messages[i].Read = true
		}
	}
	return nil
}

func (f *fakeRepo) CountUnread(user, counterpart domain.Identity) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, m := range f.messages {
		if m.To == user && m.From == counterpart && !m.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) SetPresence(identity domain.Identity, status domain.Status, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.presenceErr != nil {
		return f.presenceErr
	}
	f.presence = append(f.presence, presenceCall{identity, status, lastSeen})
	return nil
}

func (f *fakeRepo) presenceCalls() []presenceCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]presenceCall(nil), f.presence...)
}

func (f *fakeRepo) CreateUser(user domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.Identity] = user
	return nil
}

func (f *fakeRepo) GetUser(identity domain.Identity) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[identity], nil
}

func (f *fakeRepo) UpdateUser(user domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.Identity] = user
	return nil
}

func (f *fakeRepo) ListUsers() ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := []domain.User{}
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeRepo) AddFavorite(owner, contact domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.favorites[owner] {
		if c == contact {
			return nil
		}
	}
	f.favorites[owner] = append(f.favorites[owner], contact)
	return nil
}

func (f *fakeRepo) RemoveFavorite(owner, contact domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.favorites[owner][:0]
	for _, c := range f.favorites[owner] {
		if c != contact {
			kept = append(kept, c)
		}
	}
	f.favorites[owner] = kept
	return nil
}

func (f *fakeRepo) ListFavorites(owner domain.Identity) ([]domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Identity(nil), f.favorites[owner]...), nil
}

type sentEvent struct {
	conn  *domain.Conn
	event domain.Event
}

// recordingBroadcaster captures every SendTo and Broadcast instead of
// delivering to real handles.
type recordingBroadcaster struct {
	mu         sync.Mutex
	broadcasts []domain.Event
	sends      []sentEvent
	sendErr    error
}

func (b *recordingBroadcaster) SendTo(conn *domain.Conn, event domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sendErr != nil {
		return b.sendErr
	}
	b.sends = append(b.sends, sentEvent{conn, event})
	return nil
}

func (b *recordingBroadcaster) Broadcast(event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcasts = append(b.broadcasts, event)
}

func (b *recordingBroadcaster) broadcastEvents() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event(nil), b.broadcasts...)
}

func (b *recordingBroadcaster) sentEvents() []sentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentEvent(nil), b.sends...)
}
