package store

import (
	"context"

	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/model"
)

// Users returns the whole User collection.
func (s *Store) Users(ctx context.Context) []model.User {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		s.fail("users", KeyUsers, err)
		return []model.User{}
	}
	if users == nil {
		return []model.User{}
	}
	return users
}

// UserByID returns the User with id.
func (s *Store) UserByID(ctx context.Context, id string) (*model.User, bool) {
	users := s.Users(ctx)
	if i := indexOfUser(users, id); i >= 0 {
		return &users[i], true
	}
	return nil, false
}

// UserByPhone returns the first User whose phone equals phone exactly.
// This is a linear scan over the collection.
func (s *Store) UserByPhone(ctx context.Context, phone string) (*model.User, bool) {
	users := s.Users(ctx)
	for i := range users {
		if users[i].Phone == phone {
			return &users[i], true
		}
	}
	return nil, false
}

// ListSpecialists returns every User of type specialist.
func (s *Store) ListSpecialists(ctx context.Context) []model.User {
	out := []model.User{}
	for _, u := range s.Users(ctx) {
		if u.Type == model.UserTypeSpecialist {
			out = append(out, u)
		}
	}
	return out
}

// SaveUserProfile shallow-merges patch onto the User with patch.ID. The active
// session copy is patched in the same batch when it belongs to that User.
func (s *Store) SaveUserProfile(ctx context.Context, patch model.UserPatch) bool {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		s.fail("save_profile", KeyUsers, err)
		return false
	}
	i := indexOfUser(users, patch.ID)
	if i < 0 {
		return false
	}
	patch.Apply(&users[i])

	extra, err := s.sessionPatchOp(ctx, patch.ID, patch.Apply)
	if err != nil {
		s.fail("save_profile", KeyCurrentUser, err)
		return false
	}
	if err := s.CommitUsers(ctx, users, extra...); err != nil {
		s.fail("save_profile", KeyUsers, err)
		return false
	}
	return true
}

// SetSpecialistAvailability sets the available flag on a specialist. Other
// user types are left untouched and reported as false.
func (s *Store) SetSpecialistAvailability(ctx context.Context, specialistID string, available bool) bool {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		s.fail("set_availability", KeyUsers, err)
		return false
	}
	i := indexOfUser(users, specialistID)
	if i < 0 || users[i].Type != model.UserTypeSpecialist {
		return false
	}
	users[i].Available = available

	extra, err := s.sessionPatchOp(ctx, specialistID, func(u *model.User) { u.Available = available })
	if err != nil {
		s.fail("set_availability", KeyCurrentUser, err)
		return false
	}
	if err := s.CommitUsers(ctx, users, extra...); err != nil {
		s.fail("set_availability", KeyUsers, err)
		return false
	}
	return true
}

// DeleteUserAccount removes the User, its Media entry and, if it is the
// active session, the session. All three writes are one batch.
func (s *Store) DeleteUserAccount(ctx context.Context, userID string) bool {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		s.fail("delete_account", KeyUsers, err)
		return false
	}
	i := indexOfUser(users, userID)
	if i < 0 {
		return false
	}
	users = append(users[:i], users[i+1:]...)

	media, err := s.loadMedia(ctx)
	if err != nil {
		s.fail("delete_account", KeyUserMedia, err)
		return false
	}
	var ops []kv.Op
	if _, ok := media[userID]; ok {
		delete(media, userID)
		op, err := kv.PutJSON(KeyUserMedia, media)
		if err != nil {
			s.fail("delete_account", KeyUserMedia, err)
			return false
		}
		ops = append(ops, op)
	}

	sess, err := s.LoadSession(ctx)
	if err != nil {
		s.fail("delete_account", KeyCurrentUser, err)
		return false
	}
	if sess != nil && sess.ID == userID {
		ops = append(ops, kv.Delete(KeyCurrentUser))
	}

	if err := s.CommitUsers(ctx, users, ops...); err != nil {
		s.fail("delete_account", KeyUsers, err)
		return false
	}
	return true
}

// sessionPatchOp returns an op rewriting the session snapshot with fn applied,
// or nothing when the session belongs to another user.
func (s *Store) sessionPatchOp(ctx context.Context, userID string, fn func(*model.User)) ([]kv.Op, error) {
	sess, err := s.LoadSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.ID != userID {
		return nil, nil
	}
	fn(sess)
	op, err := kv.PutJSON(KeyCurrentUser, sess)
	if err != nil {
		return nil, err
	}
	return []kv.Op{op}, nil
}
