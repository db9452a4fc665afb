package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/storefront/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type memUserRepo struct{ store *Store }

func NewUserRepository(store *Store) UserRepository {
	return &memUserRepo{store: store}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := emailKey(user.Email)
	if _, taken := r.store.usersByEmail[key]; taken {
		return fmt.Errorf("create user: %w", ErrDuplicate)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, taken := r.store.users[user.ID]; taken {
		return fmt.Errorf("create user %s: %w", user.ID, ErrDuplicate)
	}
	user.CreatedAt = time.Now().UTC()

	u := *user
	r.store.users[u.ID] = &u
	r.store.usersByEmail[key] = u.ID
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.usersByEmail[emailKey(email)]
	if !ok {
		return nil, nil
	}
	cp := *r.store.users[id]
	return &cp, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
