package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type UserType string

const (
	UserTypeHuman UserType = "HUMAN"
	UserTypeAgent UserType = "AGENT"
)

func (t UserType) Valid() bool {
	return t == UserTypeHuman || t == UserTypeAgent
}

// User is the authenticated caller resolved from a session token.
type User struct {
	ID    string
	Email string
}

type Profile struct {
	ID          string           `json:"id"`
	Email       string           `json:"email"`
	UserType    UserType         `json:"user_type"`
	DisplayName *string          `json:"display_name,omitempty"`
	Bio         *string          `json:"bio,omitempty"`
	AvatarURL   *string          `json:"avatar_url,omitempty"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	ReviewCount int              `json:"review_count"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
	UserType    *UserType
}

func (u ProfileUpdate) Validate() error {
	if u.UserType != nil && !u.UserType.Valid() {
		return Invalid("user_type", "user_type must be HUMAN or AGENT")
	}
	if u.DisplayName != nil && strings.TrimSpace(*u.DisplayName) == "" {
		return Invalid("display_name", "display_name must not be empty")
	}
	return nil
}
