package store

import (
	"context"

	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/model"
)

// UserMedia returns the user's media in upload order.
func (s *Store) UserMedia(ctx context.Context, userID string) []model.Media {
	media, err := s.loadMedia(ctx)
	if err != nil {
		s.fail("user_media", KeyUserMedia, err)
		return []model.Media{}
	}
	if items := media[userID]; items != nil {
		return items
	}
	return []model.Media{}
}

// AddUserMedia appends m to the user's media, assigning id and createdAt when missing.
func (s *Store) AddUserMedia(ctx context.Context, userID string, m *model.Media) bool {
	media, err := s.loadMedia(ctx)
	if err != nil {
		s.fail("add_media", KeyUserMedia, err)
		return false
	}
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now().UTC()
	}
	media[userID] = append(media[userID], *m)
	return s.commitMedia(ctx, "add_media", media)
}

// RemoveUserMedia drops one media item. Unknown ids return false.
func (s *Store) RemoveUserMedia(ctx context.Context, userID, mediaID string) bool {
	media, err := s.loadMedia(ctx)
	if err != nil {
		s.fail("remove_media", KeyUserMedia, err)
		return false
	}
	items := media[userID]
	for i := range items {
		if items[i].ID == mediaID {
			media[userID] = append(items[:i], items[i+1:]...)
			return s.commitMedia(ctx, "remove_media", media)
		}
	}
	return false
}

func (s *Store) commitMedia(ctx context.Context, op string, media map[string][]model.Media) bool {
	if err := kv.SetJSON(ctx, s.kv, KeyUserMedia, media); err != nil {
		s.fail(op, KeyUserMedia, err)
		return false
	}
	return true
}
