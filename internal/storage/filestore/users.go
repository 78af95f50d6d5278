package filestore

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/raceday/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository keyed by username.
type UserRepository struct {
	c *Collection[*user.User]
}

// Create stores u unless the username is taken. The lookup and the write
// happen under one collection lock.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.c.Update(ctx, func(records map[string]*user.User) (bool, error) {
		if _, ok := records[u.Username]; ok {
			return false, user.ErrUsernameTaken
		}
		records[u.Username] = u
		return true, nil
	})
}

// Modify applies fn to the stored user and rewrites the collection.
func (r *UserRepository) Modify(ctx context.Context, username string, fn func(u *user.User) error) (*user.User, error) {
	var updated *user.User
	err := r.c.Update(ctx, func(records map[string]*user.User) (bool, error) {
		u, ok := records[username]
		if !ok {
			return false, errors.Wrapf(user.ErrNotFound, "user %q", username)
		}
		if err := fn(u); err != nil {
			return false, err
		}
		updated = u
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Put stores u under its username.
func (r *UserRepository) Put(ctx context.Context, u *user.User) error {
	return r.c.Put(ctx, u.Username, u)
}

// Get returns the user with username and whether it exists.
func (r *UserRepository) Get(ctx context.Context, username string) (*user.User, bool, error) {
	return r.c.Get(ctx, username)
}

// Delete removes username and reports whether it existed.
func (r *UserRepository) Delete(ctx context.Context, username string) (bool, error) {
	return r.c.Delete(ctx, username)
}

// List returns all users keyed by username.
func (r *UserRepository) List(ctx context.Context) (map[string]*user.User, error) {
	return r.c.All(ctx)
}
