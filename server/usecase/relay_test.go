package usecase

import (
	"errors"
	"testing"

	"github.com/ponyo877/livetalk/server/domain"
)

func newRelayFixture() (*Relay, *domain.Hub, *recordingBroadcaster, *fakeRepo) {
	hub := domain.NewHub()
	broadcaster := &recordingBroadcaster{}
	repo := newFakeRepo()
	return NewRelay(hub, broadcaster, repo), hub, broadcaster, repo
}

func TestSendDeliversAndEchoes(t *testing.T) {
	relay, hub, broadcaster, _ := newRelayFixture()
	alice := domain.NewConn("a1", "127.0.0.1:1000", 8)
	bob := domain.NewConn("b1", "127.0.0.1:1001", 8)
	hub.Register("alice@x.com", alice)
	hub.Register("bob@x.com", bob)

	message, err := relay.Send("Alice@X.com", " bob@x.com", "hi")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if message.ID == "" {
		t.Error("returned message has no store-assigned ID")
	}
	if message.Read {
		t.Error("returned message is already read")
	}

	sends := broadcaster.sentEvents()
	if len(sends) != 2 {
		t.Fatalf("delivery count = %d, want 2 (recipient + echo)", len(sends))
	}
	if sends[0].conn != bob || sends[0].event.Type != domain.EventMessageReceived {
		t.Errorf("first delivery = %+v, want message_received to bob", sends[0].event.Type)
	}
	if sends[1].conn != alice || sends[1].event.Type != domain.EventMessageSentEcho {
		t.Errorf("second delivery = %+v, want message_sent_echo to alice", sends[1].event.Type)
	}
}

func TestSendOfflineRecipientStillPersists(t *testing.T) {
	relay, _, broadcaster, repo := newRelayFixture()

	message, err := relay.Send("alice@x.com", "bob@x.com", "hi")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if message.Read {
		t.Error("message to an offline recipient must stay unread")
	}
	if len(broadcaster.sentEvents()) != 0 {
		t.Error("delivery attempted with no registered handles")
	}

	history, err := relay.History("alice@x.com", "bob@x.com")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].ID != message.ID {
		t.Errorf("history = %+v, want the persisted message", history)
	}
	if len(repo.messages) != 1 {
		t.Errorf("persisted message count = %d, want 1", len(repo.messages))
	}
}

func TestSendEmptyMessage(t *testing.T) {
	relay, _, _, repo := newRelayFixture()

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := relay.Send("bob@x.com", "alice@x.com", text); !errors.Is(err, domain.ErrEmptyMessage) {
			t.Errorf("Send(%q) error = %v, want ErrEmptyMessage", text, err)
		}
	}
	if len(repo.messages) != 0 {
		t.Error("rejected message left a persisted record")
	}
}

func TestSendInvalidIdentity(t *testing.T) {
	relay, _, _, repo := newRelayFixture()

	if _, err := relay.Send("  ", "bob@x.com", "hi"); !errors.Is(err, domain.ErrInvalidIdentity) {
		t.Errorf("Send with empty sender error = %v, want ErrInvalidIdentity", err)
	}
	if _, err := relay.Send("alice@x.com", "", "hi"); !errors.Is(err, domain.ErrInvalidIdentity) {
		t.Errorf("Send with empty recipient error = %v, want ErrInvalidIdentity", err)
	}
	if len(repo.messages) != 0 {
		t.Error("rejected send left a persisted record")
	}
}

func TestSendPersistenceFailureSkipsDelivery(t *testing.T) {
	relay, hub, broadcaster, repo := newRelayFixture()
	repo.saveErr = errors.New("disk full")
	bob := domain.NewConn("b1", "127.0.0.1:1001", 8)
	hub.Register("bob@x.com", bob)

	if _, err := relay.Send("alice@x.com", "bob@x.com", "hi"); err == nil {
		t.Fatal("Send succeeded despite persistence failure")
	}
	if len(broadcaster.sentEvents()) != 0 {
		t.Error("delivery attempted after persistence failure")
	}
}

func TestSelfMessageDeliveredOnce(t *testing.T) {
	relay, hub, broadcaster, _ := newRelayFixture()
	alice := domain.NewConn("a1", "127.0.0.1:1000", 8)
	hub.Register("alice@x.com", alice)

	if _, err := relay.Send("alice@x.com", "Alice@X.com", "note to self"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	sends := broadcaster.sentEvents()
	if len(sends) != 1 {
		t.Fatalf("self-message delivered %d times, want once", len(sends))
	}
	if sends[0].conn != alice || sends[0].event.Type != domain.EventMessageReceived {
		t.Errorf("delivery = %+v, want message_received to alice's handle", sends[0].event.Type)
	}
}

func TestSendDeliveryFailureNotSurfaced(t *testing.T) {
	relay, hub, broadcaster, _ := newRelayFixture()
	broadcaster.sendErr = domain.ErrHandleGone
	bob := domain.NewConn("b1", "127.0.0.1:1001", 8)
	hub.Register("bob@x.com", bob)

	if _, err := relay.Send("alice@x.com", "bob@x.com", "hi"); err != nil {
		t.Errorf("Send surfaced a delivery failure: %v", err)
	}
}

func TestHistorySymmetric(t *testing.T) {
	relay, _, _, _ := newRelayFixture()

	if _, err := relay.Send("alice@x.com", "bob@x.com", "one"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := relay.Send("bob@x.com", "alice@x.com", "two"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := relay.Send("alice@x.com", "bob@x.com", "three"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	forward, err := relay.History("alice@x.com", "bob@x.com")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	backward, err := relay.History("BOB@X.COM", " alice@x.com")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}

	if len(forward) != 3 || len(backward) != 3 {
		t.Fatalf("history lengths = %d/%d, want 3/3", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i].ID != backward[i].ID {
			t.Errorf("history order differs at %d: %s vs %s", i, forward[i].ID, backward[i].ID)
		}
		if i > 0 && forward[i].Timestamp.Before(forward[i-1].Timestamp) {
			t.Errorf("history not in timestamp order at %d", i)
		}
	}
}

func TestHistoryEmptyConversation(t *testing.T) {
	relay, _, _, _ := newRelayFixture()

	history, err := relay.History("alice@x.com", "bob@x.com")
	if err != nil {
		t.Fatalf("History on empty conversation errored: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history = %+v, want empty", history)
	}
}

func TestMarkReadOnlyAffectsRecipient(t *testing.T) {
	relay, _, _, _ := newRelayFixture()

	if _, err := relay.Send("alice@x.com", "bob@x.com", "to bob"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := relay.Send("bob@x.com", "alice@x.com", "to alice"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if err := relay.MarkRead("bob@x.com", "alice@x.com"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	history, err := relay.History("alice@x.com", "bob@x.com")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	for _, m := range history {
		if m.To == "bob@x.com" && !m.Read {
			t.Errorf("message to bob still unread: %+v", m)
		}
		if m.To == "alice@x.com" && m.Read {
			t.Errorf("message to alice was marked read: %+v", m)
		}
	}

	// Idempotent re-invocation.
	if err := relay.MarkRead("bob@x.com", "alice@x.com"); err != nil {
		t.Errorf("second MarkRead errored: %v", err)
	}
}

func TestUnreadCount(t *testing.T) {
	relay, _, _, _ := newRelayFixture()

	for i := 0; i < 3; i++ {
		if _, err := relay.Send("alice@x.com", "bob@x.com", "ping"); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}

	count, err := relay.UnreadCount("bob@x.com", "alice@x.com")
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("unread = %d, want 3", count)
	}

	if err := relay.MarkRead("bob@x.com", "alice@x.com"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	count, err = relay.UnreadCount("bob@x.com", "alice@x.com")
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("unread after MarkRead = %d, want 0", count)
	}
}
