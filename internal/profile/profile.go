package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "student_connect/internal/lib/logger"
	"student_connect/internal/models"
	"student_connect/internal/storage"
)

var ErrAccountNotFound = errors.New("account not found")

type Service struct {
	log         *slog.Logger
	accProvider AccountProvider
	accUpdater  ProfileUpdater
	directory   DirectoryLister
	cache       DirectoryCache
}

type AccountProvider interface {
	AccountByID(ctx context.Context, id string) (models.Account, error)
}

type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, acc models.Account) error
}

type DirectoryLister interface {
	ListDirectory(ctx context.Context, school, course string) ([]models.Account, error)
}

// DirectoryCache is optional; pass nil to serve listings straight from the
// store.
type DirectoryCache interface {
	GetDirectory(ctx context.Context, school, course string) ([]models.PublicAccount, bool, error)
	SetDirectory(ctx context.Context, school, course string, profiles []models.PublicAccount) error
}

func New(
	log *slog.Logger,
	accProvider AccountProvider,
	accUpdater ProfileUpdater,
	directory DirectoryLister,
	cache DirectoryCache,
) *Service {
	return &Service{
		log:         log,
		accProvider: accProvider,
		accUpdater:  accUpdater,
		directory:   directory,
		cache:       cache,
	}
}

// Update carries the fields a client may change. Nil fields are left
// untouched, not cleared.
type Update struct {
	FullName    *string
	School      *string
	Course      *string
	Year        *string
	Country     *string
	Bio         *string
	Interests   []string
	AvatarURL   *string
	SocialLinks map[string]string
}

func (s *Service) Get(ctx context.Context, accountID string) (models.PublicAccount, error) {
	const op = "profile.Get"

	acc, err := s.accProvider.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		s.log.Error("failed to get account", slog.String("op", op), sl.Err(err))
		return models.PublicAccount{}, fmt.Errorf("%s: %w", op, err)
	}

	return acc.Public(), nil
}

// ApplyTo merges the patch into the account and recomputes the completion
// flag: a profile is complete once name, school and course are all present.
func (u Update) ApplyTo(acc *models.Account) {
	if u.FullName != nil {
		acc.FullName = *u.FullName
	}
	if u.School != nil {
		acc.School = u.School
	}
	if u.Course != nil {
		acc.Course = u.Course
	}
	if u.Year != nil {
		acc.Year = u.Year
	}
	if u.Country != nil {
		acc.Country = u.Country
	}
	if u.Bio != nil {
		acc.Bio = u.Bio
	}
	if u.Interests != nil {
		acc.Interests = u.Interests
	}
	if u.AvatarURL != nil {
		acc.AvatarURL = u.AvatarURL
	}
	if u.SocialLinks != nil {
		acc.SocialLinks = u.SocialLinks
	}

	acc.ProfileCompleted = acc.FullName != "" &&
		acc.School != nil && *acc.School != "" &&
		acc.Course != nil && *acc.Course != ""
}

func (s *Service) Patch(ctx context.Context, accountID string, upd Update) (models.PublicAccount, error) {
	const op = "profile.Patch"

	log := s.log.With(slog.String("op", op))

	acc, err := s.accProvider.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		log.Error("failed to get account", sl.Err(err))
		return models.PublicAccount{}, fmt.Errorf("%s: %w", op, err)
	}

	upd.ApplyTo(&acc)

	if err := s.accUpdater.UpdateProfile(ctx, acc); err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		log.Error("failed to update profile", sl.Err(err))
		return models.PublicAccount{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("profile updated", slog.String("id", accountID), slog.Bool("completed", acc.ProfileCompleted))

	return acc.Public(), nil
}

// Directory lists verified peers with completed profiles, optionally filtered
// by school and course. Served through the cache when one is configured; a
// cache error degrades to a store read rather than failing the request.
func (s *Service) Directory(ctx context.Context, school, course string) ([]models.PublicAccount, error) {
	const op = "profile.Directory"

	log := s.log.With(slog.String("op", op))

	if s.cache != nil {
		profiles, ok, err := s.cache.GetDirectory(ctx, school, course)
		if err != nil {
			log.Warn("directory cache read failed", sl.Err(err))
		} else if ok {
			return profiles, nil
		}
	}

	accounts, err := s.directory.ListDirectory(ctx, school, course)
	if err != nil {
		log.Error("failed to list directory", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profiles := make([]models.PublicAccount, 0, len(accounts))
	for _, acc := range accounts {
		profiles = append(profiles, acc.Public())
	}

	if s.cache != nil {
		if err := s.cache.SetDirectory(ctx, school, course, profiles); err != nil {
			log.Warn("directory cache write failed", sl.Err(err))
		}
	}

	return profiles, nil
}
