package usecase

import (
	"fmt"

	"github.com/ponyo877/livetalk/server/domain"
)

// Profile covers the CRUD surface around the relay core: user profiles and
// favorites lists. Credential handling belongs to the external identity
// service and is deliberately absent.
type Profile struct {
	repo Repository
}

func NewProfile(repo Repository) *Profile {
	return &Profile{repo: repo}
}

func (p *Profile) CreateUser(rawIdentity, displayName string) (domain.User, error) {
	identity, err := domain.NormalizeIdentity(rawIdentity)
	if err != nil {
		return domain.User{}, err
	}
	if displayName == "" {
		displayName = identity.String()
	}

	user := domain.NewUser(identity, displayName)
	if err := p.repo.CreateUser(user); err != nil {
		return domain.User{}, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

func (p *Profile) GetUser(rawIdentity string) (domain.User, error) {
	identity, err := domain.NormalizeIdentity(rawIdentity)
	if err != nil {
		return domain.User{}, err
	}

	user, err := p.repo.GetUser(identity)
	if err != nil {
		return domain.User{}, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

// UpdateUser applies a partial profile update: empty fields keep their stored
// value.
func (p *Profile) UpdateUser(rawIdentity, displayName, statusMessage, avatar string) (domain.User, error) {
	identity, err := domain.NormalizeIdentity(rawIdentity)
	if err != nil {
		return domain.User{}, err
	}

	user, err := p.repo.GetUser(identity)
	if err != nil {
		return domain.User{}, fmt.Errorf("getting user: %w", err)
	}
	if displayName != "" {
		user.DisplayName = displayName
	}
	if statusMessage != "" {
		user.StatusMessage = statusMessage
	}
	if avatar != "" {
		user.Avatar = avatar
	}

	if err := p.repo.UpdateUser(user); err != nil {
		return domain.User{}, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}

func (p *Profile) ListUsers() ([]domain.User, error) {
	users, err := p.repo.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (p *Profile) AddFavorite(ownerRaw, contactRaw string) error {
	owner, err := domain.NormalizeIdentity(ownerRaw)
	if err != nil {
		return fmt.Errorf("invalid owner: %w", err)
	}
	contact, err := domain.NormalizeIdentity(contactRaw)
	if err != nil {
		return fmt.Errorf("invalid contact: %w", err)
	}

	if err := p.repo.AddFavorite(owner, contact); err != nil {
		return fmt.Errorf("adding favorite: %w", err)
	}
	return nil
}

func (p *Profile) RemoveFavorite(ownerRaw, contactRaw string) error {
	owner, err := domain.NormalizeIdentity(ownerRaw)
	if err != nil {
		return fmt.Errorf("invalid owner: %w", err)
	}
	contact, err := domain.NormalizeIdentity(contactRaw)
	if err != nil {
		return fmt.Errorf("invalid contact: %w", err)
	}

	if err := p.repo.RemoveFavorite(owner, contact); err != nil {
		return fmt.Errorf("removing favorite: %w", err)
	}
	return nil
}

func (p *Profile) ListFavorites(ownerRaw string) ([]domain.Identity, error) {
	owner, err := domain.NormalizeIdentity(ownerRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid owner: %w", err)
	}

	favorites, err := p.repo.ListFavorites(owner)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	return favorites, nil
}
