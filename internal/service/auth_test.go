package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/storefront/internal/dto"
	"github.com/flicky/storefront/internal/model"
)

type mockUserRepo struct {
	users map[string]*model.User
	byID  map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), byID: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	m.users[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.users[email], nil
}

func (m *mockUserRepo) add(t *testing.T, email, password, role string) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{ID: uuid.NewString(), Email: email, Password: string(hashed), Name: "Test", Role: role}
	m.users[email] = u
	m.byID[u.ID] = u
	return u
}

func TestAuthService_Register(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	session, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: " Test@Example.com ", Password: "password123", Name: "Jane Doe",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "test@example.com", session.User.Email)
	assert.Equal(t, model.RoleCustomer, session.User.Role)
	assert.NotEqual(t, "password123", repo.users["test@example.com"].Password)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)
	repo.add(t, "test@example.com", "password123", model.RoleCustomer)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "TEST@example.com", Password: "password123", Name: "Jane Doe",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)
	repo.add(t, "test@example.com", "password123", model.RoleCustomer)

	session, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "test@example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)
	repo.add(t, "test@example.com", "password123", model.RoleCustomer)

	tests := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", "test@example.com", "wrong"},
		{"unknown email", "nobody@example.com", "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.Login(context.Background(), dto.LoginRequest{Email: tt.email, Password: tt.pass})
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Nil(t, session)
		})
	}
}

func TestAuthService_Resolve(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)
	admin := repo.add(t, "admin@example.com", "admin123", model.RoleAdmin)

	session, err := svc.Login(context.Background(), dto.LoginRequest{Email: admin.Email, Password: "admin123"})
	require.NoError(t, err)

	user, err := svc.Resolve(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)
	assert.True(t, user.IsAdmin())
}

func TestAuthService_Resolve_InvalidToken(t *testing.T) {
	repo := newMockUserRepo()
	u := repo.add(t, "test@example.com", "password123", model.RoleCustomer)

	expired, err := NewAuthService(repo, "test-secret", -time.Hour).generateToken(u)
	require.NoError(t, err)
	foreign, err := NewAuthService(repo, "other-secret", time.Hour).generateToken(u)
	require.NoError(t, err)

	svc := NewAuthService(repo, "test-secret", time.Hour)
	for name, token := range map[string]string{
		"garbage": "not-a-token",
		"empty":   "",
		"expired": expired,
		"foreign": foreign,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Resolve(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthService_Resolve_UserGone(t *testing.T) {
	repo := newMockUserRepo()
	u := repo.add(t, "test@example.com", "password123", model.RoleCustomer)
	svc := NewAuthService(repo, "test-secret", time.Hour)
	token, err := svc.generateToken(u)
	require.NoError(t, err)

	delete(repo.byID, u.ID)
	_, err = svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
