package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

const (
	maxTagNameLen    = 120
	maxCatalystLen   = 500
	defaultListLimit = 30
	maxListLimit     = 200
)

// Watchlist is the thin CRUD layer for a user's tags and catalysts.
// Every tag-scoped call checks that the tag belongs to the caller.
type Watchlist struct {
	repo     ports.WatchlistRepository
	analyses ports.AnalysisRepository
}

// NewWatchlist constructs the service.
func NewWatchlist(repo ports.WatchlistRepository, analyses ports.AnalysisRepository) *Watchlist {
	return &Watchlist{repo: repo, analyses: analyses}
}

// SignIn finds or creates the user for email; the name defaults to the local part.
func (w *Watchlist) SignIn(ctx context.Context, email string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return domain.User{}, fmt.Errorf("usecase.Watchlist.SignIn: %w: invalid email", domain.ErrValidation)
	}

	user, err := w.repo.FindOrCreateUser(ctx, email, email[:at])
	if err != nil {
		return domain.User{}, fmt.Errorf("usecase.Watchlist.SignIn: %w", err)
	}
	return user, nil
}

// CreateTag adds a watched subject for userID.
func (w *Watchlist) CreateTag(ctx context.Context, userID uuid.UUID, name string, tagType domain.TagType) (domain.Tag, error) {
	name = strings.TrimSpace(name)
	tagType = domain.TagType(strings.ToUpper(strings.TrimSpace(string(tagType))))
	switch {
	case name == "":
		return domain.Tag{}, fmt.Errorf("usecase.Watchlist.CreateTag: %w: name is required", domain.ErrValidation)
	case len(name) > maxTagNameLen:
		return domain.Tag{}, fmt.Errorf("usecase.Watchlist.CreateTag: %w: name is too long", domain.ErrValidation)
	case !tagType.Valid():
		return domain.Tag{}, fmt.Errorf("usecase.Watchlist.CreateTag: %w: type must be COMPANY or INDUSTRY", domain.ErrValidation)
	}

	tag, err := w.repo.CreateTag(ctx, domain.Tag{UserID: userID, Name: name, Type: tagType})
	if err != nil {
		return domain.Tag{}, fmt.Errorf("usecase.Watchlist.CreateTag: %w", err)
	}
	return tag, nil
}

// ListTags returns the caller's tags in creation order.
func (w *Watchlist) ListTags(ctx context.Context, userID uuid.UUID) ([]domain.Tag, error) {
	tags, err := w.repo.ListTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase.Watchlist.ListTags: %w", err)
	}
	return tags, nil
}

// OwnedTag loads a tag and verifies the caller owns it.
func (w *Watchlist) OwnedTag(ctx context.Context, userID, tagID uuid.UUID) (domain.Tag, error) {
	tag, err := w.repo.GetTag(ctx, tagID)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("usecase.Watchlist.OwnedTag: %w", err)
	}
	if tag.UserID != userID {
		return domain.Tag{}, fmt.Errorf("usecase.Watchlist.OwnedTag: %w", domain.ErrForbidden)
	}
	return tag, nil
}

// DeleteTag removes an owned tag together with its children.
func (w *Watchlist) DeleteTag(ctx context.Context, userID, tagID uuid.UUID) error {
	if _, err := w.OwnedTag(ctx, userID, tagID); err != nil {
		return err
	}
	if err := w.repo.DeleteTag(ctx, tagID); err != nil {
		return fmt.Errorf("usecase.Watchlist.DeleteTag: %w", err)
	}
	return nil
}

// AddCatalyst attaches a watch-item to an owned tag.
func (w *Watchlist) AddCatalyst(ctx context.Context, userID, tagID uuid.UUID, content string) (domain.Catalyst, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return domain.Catalyst{}, fmt.Errorf("usecase.Watchlist.AddCatalyst: %w: content is required", domain.ErrValidation)
	case len(content) > maxCatalystLen:
		return domain.Catalyst{}, fmt.Errorf("usecase.Watchlist.AddCatalyst: %w: content is too long", domain.ErrValidation)
	}

	if _, err := w.OwnedTag(ctx, userID, tagID); err != nil {
		return domain.Catalyst{}, err
	}

	c, err := w.repo.CreateCatalyst(ctx, tagID, content)
	if err != nil {
		return domain.Catalyst{}, fmt.Errorf("usecase.Watchlist.AddCatalyst: %w", err)
	}
	return c, nil
}

// ListCatalysts returns the catalysts of an owned tag.
func (w *Watchlist) ListCatalysts(ctx context.Context, userID, tagID uuid.UUID) ([]domain.Catalyst, error) {
	if _, err := w.OwnedTag(ctx, userID, tagID); err != nil {
		return nil, err
	}
	list, err := w.repo.ListCatalysts(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("usecase.Watchlist.ListCatalysts: %w", err)
	}
	return list, nil
}

// DeleteCatalyst removes a catalyst whose tag the caller owns.
func (w *Watchlist) DeleteCatalyst(ctx context.Context, userID, catalystID uuid.UUID) error {
	c, err := w.repo.GetCatalyst(ctx, catalystID)
	if err != nil {
		return fmt.Errorf("usecase.Watchlist.DeleteCatalyst: %w", err)
	}
	if _, err := w.OwnedTag(ctx, userID, c.TagID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("usecase.Watchlist.DeleteCatalyst: %w", domain.ErrNotFound)
		}
		return err
	}
	if err := w.repo.DeleteCatalyst(ctx, catalystID); err != nil {
		return fmt.Errorf("usecase.Watchlist.DeleteCatalyst: %w", err)
	}
	return nil
}

// ListAssessments returns the newest assessments of an owned tag first.
func (w *Watchlist) ListAssessments(ctx context.Context, userID, tagID uuid.UUID, limit int) ([]domain.Assessment, error) {
	if _, err := w.OwnedTag(ctx, userID, tagID); err != nil {
		return nil, err
	}
	list, err := w.analyses.ListAssessments(ctx, tagID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("usecase.Watchlist.ListAssessments: %w", err)
	}
	return list, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}
