package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/domain"
)

const (
	userKey    = "user"
	profileKey = "profile"
)

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*domain.User, error)
}

// ProfileLoader returns the caller's profile, creating it on first sight.
type ProfileLoader interface {
	FindOrCreate(ctx context.Context, user *domain.User) (*domain.Profile, bool, error)
}

// GetUser extracts the authenticated user from the request context.
func GetUser(c *gin.Context) *domain.User {
	u, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := u.(*domain.User)
	return user
}

// GetProfile extracts the caller's profile, if it could be loaded.
func GetProfile(c *gin.Context) *domain.Profile {
	p, ok := c.Get(profileKey)
	if !ok {
		return nil
	}
	profile, _ := p.(*domain.Profile)
	return profile
}

// UserLoader returns middleware that authenticates the caller when a session
// is present and loads their profile. Anonymous requests pass through.
func UserLoader(auth Authenticator, profiles ProfileLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthorized) {
				slog.Error("authentication failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			c.Next()
			return
		}
		c.Set(userKey, user)

		profile, _, err := profiles.FindOrCreate(c.Request.Context(), user)
		if err != nil {
			slog.Error("failed to load profile", "user_id", user.ID, "error", err)
		} else {
			c.Set(profileKey, profile)
		}

		c.Next()
	}
}

// RequireUser rejects requests without an authenticated user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
