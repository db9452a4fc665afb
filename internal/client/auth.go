package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/flicky/storefront/internal/model"
)

type AuthListener func(ctx context.Context, s AuthState)

// AuthContainer tracks the signed-in user of one client session and keeps
// the session token in Storage so it survives a restart.
type AuthContainer struct {
	api     API
	storage Storage
	log     *slog.Logger

	op sync.Mutex

	mu        sync.RWMutex
	state     AuthState
	listeners []AuthListener
}

func NewAuthContainer(api API, storage Storage, log *slog.Logger) *AuthContainer {
	return &AuthContainer{api: api, storage: storage, log: log}
}

func (a *AuthContainer) State() AuthState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := a.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Subscribe registers fn to receive every state change, in order.
func (a *AuthContainer) Subscribe(fn AuthListener) {
	a.mu.Lock()
	a.listeners = append(a.listeners, fn)
	a.mu.Unlock()
}

func (a *AuthContainer) set(ctx context.Context, update func(*AuthState)) {
	a.mu.Lock()
	update(&a.state)
	listeners := append([]AuthListener(nil), a.listeners...)
	a.mu.Unlock()

	s := a.State()
	for _, fn := range listeners {
		fn(ctx, s)
	}
}

func (a *AuthContainer) loading(ctx context.Context) {
	a.set(ctx, func(s *AuthState) {
		s.Status = StatusLoading
		s.Err = ""
	})
}

func (a *AuthContainer) fail(ctx context.Context, err error) {
	a.set(ctx, func(s *AuthState) {
		s.Status = StatusError
		s.Err = err.Error()
	})
}

func (a *AuthContainer) signedOut(ctx context.Context) {
	a.set(ctx, func(s *AuthState) {
		*s = AuthState{Status: StatusReady}
	})
}

// Init restores the session from a persisted token. A token the backend
// rejects is dropped and the container settles signed out.
func (a *AuthContainer) Init(ctx context.Context) {
	a.op.Lock()
	defer a.op.Unlock()

	a.loading(ctx)

	token, ok, err := a.storage.Get(tokenKey)
	if err != nil {
		a.log.Warn("read stored token", "error", err)
	}
	if !ok || token == "" {
		a.signedOut(ctx)
		return
	}

	user, err := a.api.CurrentUser(ctx, token)
	if err != nil {
		a.log.Info("stored session rejected", "error", err)
		if err := a.storage.Delete(tokenKey); err != nil {
			a.log.Warn("drop stored token", "error", err)
		}
		a.signedOut(ctx)
		return
	}

	a.set(ctx, func(s *AuthState) {
		*s = AuthState{Status: StatusReady, User: user, Token: token}
	})
}

func (a *AuthContainer) Login(ctx context.Context, email, password string) error {
	a.op.Lock()
	defer a.op.Unlock()

	a.loading(ctx)
	session, err := a.api.Login(ctx, email, password)
	if err != nil {
		a.fail(ctx, err)
		return err
	}
	a.signedIn(ctx, session.Token, session.User)
	return nil
}

func (a *AuthContainer) Register(ctx context.Context, email, password, name string) error {
	a.op.Lock()
	defer a.op.Unlock()

	a.loading(ctx)
	session, err := a.api.Register(ctx, email, password, name)
	if err != nil {
		a.fail(ctx, err)
		return err
	}
	a.signedIn(ctx, session.Token, session.User)
	return nil
}

func (a *AuthContainer) signedIn(ctx context.Context, token string, user model.User) {
	if err := a.storage.Set(tokenKey, token); err != nil {
		a.log.Warn("persist token", "error", err)
	}
	a.set(ctx, func(s *AuthState) {
		*s = AuthState{Status: StatusReady, User: &user, Token: token}
	})
}

// Logout forgets the session locally. Tokens are stateless so there is
// nothing to revoke on the backend.
func (a *AuthContainer) Logout(ctx context.Context) {
	a.op.Lock()
	defer a.op.Unlock()

	if err := a.storage.Delete(tokenKey); err != nil {
		a.log.Warn("drop stored token", "error", err)
	}
	a.signedOut(ctx)
}
