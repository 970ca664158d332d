package domain

import "time"

// User is a profile record. Credential handling lives in an external identity
// service, so there is no password here.
type User struct {
	Identity      Identity  `json:"email"`
	DisplayName   string    `json:"displayName"`
	StatusMessage string    `json:"statusMessage"`
	Avatar        string    `json:"avatar"`
	Status        Status    `json:"status"`
	LastSeen      time.Time `json:"lastSeen"`
}

func NewUser(identity Identity, displayName string) User {
	return User{
		Identity:    identity,
		DisplayName: displayName,
		Avatar:      "default.png",
		Status:      StatusOffline,
		LastSeen:    time.Now(),
	}
}
