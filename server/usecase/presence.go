package usecase

import (
	"log/slog"
	"time"

	"github.com/ponyo877/livetalk/server/domain"
)

// Presence derives online/offline status from registry membership and emits
// change notifications. Transitions are driven by the transport calling Join
// and Disconnect; the stale-handle guard lives in the registry.
type Presence struct {
	registry    Registry
	broadcaster Broadcaster
	repo        Repository
	now         func() time.Time
}

func NewPresence(registry Registry, broadcaster Broadcaster, repo Repository) *Presence {
	return &Presence{
		registry:    registry,
		broadcaster: broadcaster,
		repo:        repo,
		now:         time.Now,
	}
}

// Join transitions identity to online: the handle is registered (replacing
// any previous handle for the same identity), stored presence is updated
// best-effort, and the change is broadcast. A duplicate join with no
// intervening disconnect re-emits the online broadcast; that is harmless,
// unlike a spurious offline one.
func (p *Presence) Join(rawIdentity string, conn *domain.Conn) (domain.Identity, error) {
	identity, err := domain.NormalizeIdentity(rawIdentity)
	if err != nil {
		return "", err
	}

	p.registry.Register(identity, conn)

	if err := p.repo.SetPresence(identity, domain.StatusOnline, p.now()); err != nil {
		slog.Warn("failed to store online presence", "identity", identity, "error", err)
	}
	p.broadcaster.Broadcast(domain.NewPresenceEvent(identity, domain.StatusOnline))

	slog.Info("user joined", "identity", identity, "conn", conn.ID(), "online", p.registry.Count())
	return identity, nil
}

// Disconnect transitions identity to offline, but only when conn is still the
// registered handle. A disconnect from a handle that was superseded by a
// reconnect produces no transition and no broadcast, so a still-connected
// user never appears to go offline.
func (p *Presence) Disconnect(identity domain.Identity, conn *domain.Conn) {
	if !p.registry.Unregister(identity, conn) {
		slog.Debug("ignoring stale disconnect", "identity", identity, "conn", conn.ID())
		return
	}

	if err := p.repo.SetPresence(identity, domain.StatusOffline, p.now()); err != nil {
		slog.Warn("failed to store offline presence", "identity", identity, "error", err)
	}
	p.broadcaster.Broadcast(domain.NewPresenceEvent(identity, domain.StatusOffline))

	slog.Info("user disconnected", "identity", identity, "conn", conn.ID(), "online", p.registry.Count())
}

// OnlineCount reports the number of distinct online identities.
func (p *Presence) OnlineCount() int {
	return p.registry.Count()
}
