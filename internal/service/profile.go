package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/repository"
)

type ProfileService struct {
	db      repository.DB
	queries *repository.Queries
}

func NewProfileService(db repository.DB, queries *repository.Queries) *ProfileService {
	return &ProfileService{db: db, queries: queries}
}

// FindOrCreate returns the caller's profile, creating a HUMAN profile on
// first sight. The bool reports whether it was created.
func (s *ProfileService) FindOrCreate(ctx context.Context, user *domain.User) (*domain.Profile, bool, error) {
	row, err := s.queries.GetProfile(ctx, user.ID)
	if err == nil {
		return rowToProfile(row), false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("get profile: %w", err)
	}

	row, err = s.queries.CreateProfile(ctx, repository.CreateProfileParams{
		ID:       user.ID,
		Email:    user.Email,
		UserType: string(domain.UserTypeHuman),
	})
	if err != nil {
		return nil, false, fmt.Errorf("create profile: %w", err)
	}

	slog.Info("profile created", "user_id", user.ID)
	return rowToProfile(row), true, nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrProfileNotFound
	}
	row, err := s.queries.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return rowToProfile(row), nil
}

func (s *ProfileService) Update(ctx context.Context, user *domain.User, upd domain.ProfileUpdate) (*domain.Profile, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	row, err := s.queries.UpdateProfile(ctx, repository.UpdateProfileParams{
		ID:          user.ID,
		DisplayName: upd.DisplayName,
		Bio:         upd.Bio,
		AvatarURL:   upd.AvatarURL,
		UserType:    userTypeToStringPtr(upd.UserType),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return rowToProfile(row), nil
}
