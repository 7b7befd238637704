package models

import (
	"time"

	"github.com/google/uuid"

	"riskgate/internal/risk"
)

// User is the authentication model protected by risk evaluation.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash []byte
	Name         string
	Traits       map[string]any
	CreatedAt    time.Time
}

// Principal adapts a User to the risk.Principal interface consumed by the
// scoring payloads.
type Principal struct {
	user *User
}

// NewPrincipal wraps a user for scoring. u must not be nil.
func NewPrincipal(u *User) Principal {
	return Principal{user: u}
}

// PrincipalID is the identifier reported to the scoring service.
func (p Principal) PrincipalID() string { return p.user.ID.String() }

func (p Principal) Email() string { return p.user.Email }

// DisplayName is the human-readable name shown on the scoring dashboard.
// Empty when the user never set one; the payload then omits it.
func (p Principal) DisplayName() string { return p.user.Name }

// Traits carries additional attributes sent with risk and log calls.
func (p Principal) Traits() map[string]any { return p.user.Traits }

func (p Principal) RegisteredAt() time.Time { return p.user.CreatedAt }

var _ risk.Principal = Principal{}
