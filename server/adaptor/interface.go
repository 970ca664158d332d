package adaptor

import "github.com/ponyo877/livetalk/server/domain"

type RelayUsecase interface {
	Send(fromRaw, toRaw, text string) (domain.Message, error)
	History(aRaw, bRaw string) ([]domain.Message, error)
	MarkRead(userRaw, counterpartRaw string) error
	UnreadCount(userRaw, counterpartRaw string) (int, error)
}

type PresenceUsecase interface {
	Join(rawIdentity string, conn *domain.Conn) (domain.Identity, error)
	Disconnect(identity domain.Identity, conn *domain.Conn)
	OnlineCount() int
}

type ProfileUsecase interface {
	CreateUser(rawIdentity, displayName string) (domain.User, error)
	GetUser(rawIdentity string) (domain.User, error)
	UpdateUser(rawIdentity, displayName, statusMessage, avatar string) (domain.User, error)
	ListUsers() ([]domain.User, error)
	AddFavorite(ownerRaw, contactRaw string) error
	RemoveFavorite(ownerRaw, contactRaw string) error
	ListFavorites(ownerRaw string) ([]domain.Identity, error)
}
