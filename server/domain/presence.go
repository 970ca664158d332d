package domain

// Status is an identity's presence, derived from registry membership. The
// stored record lives on the user row: created implicitly on first join,
// never deleted, offline by default.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)
