package domain

// Identity is the resolved caller: either an authenticated account reference or a
// guest reference, never both.
type Identity struct {
	Identifier string `json:"identifier,omitempty"`
	GuestID    string `json:"guest_id,omitempty"`
}

// Authenticated builds an authenticated identity.
func Authenticated(identifier string) Identity {
	return Identity{Identifier: identifier}
}

// Guest builds a guest identity.
func Guest(guestID string) Identity {
	return Identity{GuestID: guestID}
}

// IsGuest reports whether the identity is the guest variant.
func (i Identity) IsGuest() bool {
	return i.Identifier == "" && i.GuestID != ""
}

// Valid reports whether exactly one variant is set.
func (i Identity) Valid() bool {
	return (i.Identifier != "") != (i.GuestID != "")
}

// ActorID is the identifier recorded in the usage log.
func (i Identity) ActorID() string {
	if i.IsGuest() {
		return i.GuestID
	}
	return i.Identifier
}
