package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwell/pkg/qnutri"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:app.users,alias:u"`

	ID       uuid.UUID       `bun:"type:uuid,default:gen_random_uuid(),pk"`
	Email    string          `bun:",unique,notnull"`
	Nickname string          `bun:",notnull"`
	Birthday time.Time       `bun:"type:date,notnull"`
	Age      int             `bun:",notnull"`
	Gender   qnutri.Gender   `bun:",notnull"`
	Weight   decimal.Decimal `bun:"type:numeric(6,2),notnull"`
	Height   decimal.Decimal `bun:"type:numeric(6,2),notnull"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	// UpdatedAt moves whenever a recommendation input changes.
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) Metrics() qnutri.Metrics {
	return qnutri.Metrics{Weight: u.Weight, Height: u.Height, Age: u.Age, Gender: u.Gender}
}

// Auth is the single live token pair of a user. It is overwritten in place on
// renewal; the expiry columns, not the JWT exp claim, decide validity.
type Auth struct {
	bun.BaseModel `bun:"table:app.auth,alias:a"`

	UserID           uuid.UUID `bun:"type:uuid,pk"`
	AccessToken      string    `bun:",unique,notnull"`
	AccessCreatedAt  time.Time `bun:",notnull"`
	AccessExpiredAt  time.Time `bun:",notnull"`
	RefreshToken     string    `bun:",notnull"`
	RefreshCreatedAt time.Time `bun:",notnull"`
	RefreshExpiredAt time.Time `bun:",notnull"`
}

func (a *Auth) AccessValid(now time.Time) bool {
	return !now.After(a.AccessExpiredAt)
}

func (a *Auth) RefreshValid(now time.Time) bool {
	return !now.After(a.RefreshExpiredAt)
}
