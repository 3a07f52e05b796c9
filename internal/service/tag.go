package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pantryapp/pantry-server/internal/domain"
	domainerrors "github.com/pantryapp/pantry-server/internal/errors"
	"github.com/pantryapp/pantry-server/internal/id"
	"github.com/pantryapp/pantry-server/internal/normalize"
	"github.com/pantryapp/pantry-server/internal/store"
)

// TagService orchestrates tag operations.
// Tags are created implicitly through recipes; these operations cover
// listing, renaming, and deleting a user's own tags.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// CreateTag creates a tag directly, outside the recipe flow.
// The name is normalized; an existing tag with the same name is a conflict.
func (s *TagService) CreateTag(ctx context.Context, userID, name string) (*domain.Tag, error) {
	normalized := normalize.Name(name)
	if normalized == "" {
		return nil, domainerrors.Validation("name must not be empty")
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	now := time.Now()
	tag := &domain.Tag{
		ID:        tagID,
		UserID:    userID,
		Name:      normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a tag with this name already exists")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	s.logger.Info("tag created", "tag_id", tagID, "user_id", userID)

	return tag, nil
}

// GetTag returns one of the user's tags.
func (s *TagService) GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// ListTags returns the user's tags ordered by name descending.
// With assignedOnly, only tags attached to at least one recipe are
// returned, each at most once.
func (s *TagService) ListTags(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// UpdateTag renames one of the user's tags.
// The new name is normalized before saving; renaming onto an existing
// tag name is a conflict.
func (s *TagService) UpdateTag(ctx context.Context, userID, tagID, name string) (*domain.Tag, error) {
	normalized := normalize.Name(name)
	if normalized == "" {
		return nil, domainerrors.Validation("name must not be empty")
	}

	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	tag.Name = normalized
	tag.Touch()

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a tag with this name already exists")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}

	s.logger.Info("tag renamed", "tag_id", tagID, "user_id", userID)

	return tag, nil
}

// DeleteTag removes one of the user's tags.
// Recipes keep their other tags; the association rows cascade away.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID string) error {
	if err := s.store.DeleteTag(ctx, userID, tagID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("tag not found")
		}
		return fmt.Errorf("delete tag: %w", err)
	}

	s.logger.Info("tag deleted", "tag_id", tagID, "user_id", userID)

	return nil
}
