package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/fixoo-app/fixoo/internal/errs"
	"github.com/fixoo-app/fixoo/internal/model"
)

// MemoryAdmins is an in-process AdminRepository used with the memory backend.
type MemoryAdmins struct {
	mu   sync.RWMutex
	byID map[string]model.Admin
}

var _ AdminRepository = (*MemoryAdmins)(nil)

// NewMemoryAdmins constructs an empty repository.
func NewMemoryAdmins() *MemoryAdmins {
	return &MemoryAdmins{byID: map[string]model.Admin{}}
}

// Create implements AdminRepository.
func (m *MemoryAdmins) Create(_ context.Context, a *model.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Username == a.Username {
			return errs.ErrAlreadyExists
		}
	}
	if _, ok := m.byID[a.ID]; ok {
		return errs.ErrAlreadyExists
	}
	m.byID[a.ID] = *a
	return nil
}

// GetByID implements AdminRepository.
func (m *MemoryAdmins) GetByID(_ context.Context, id string) (*model.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

// GetByUsername implements AdminRepository.
func (m *MemoryAdmins) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.byID {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, errs.ErrNotFound
}

// List implements AdminRepository.
func (m *MemoryAdmins) List(_ context.Context) ([]model.Admin, error) {
	m.mu.RLock()
	out := make([]model.Admin, 0, len(m.byID))
	for _, a := range m.byID {
		out = append(out, a)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Username < out[j].Username
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete implements AdminRepository.
func (m *MemoryAdmins) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// Count implements AdminRepository.
func (m *MemoryAdmins) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID), nil
}
