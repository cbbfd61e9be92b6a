package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ryde/internal/types"
)

type memStore struct {
	mu       sync.Mutex
	accounts map[types.ID]*Account
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[types.ID]*Account)}
}

func (m *memStore) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Role == a.Role && existing.Email == a.Email {
			return ErrEmailTaken
		}
	}
	c := *a
	m.accounts[a.ID] = &c
	return nil
}

func (m *memStore) FindByEmail(_ context.Context, role types.Role, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Role == role && a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindByID(_ context.Context, role types.Role, id types.ID) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.Role != role {
		return nil, ErrNotFound
	}
	c := *a
	return &c, nil
}

type memRevocations struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func (r *memRevocations) Revoke(_ context.Context, token string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = until
	return nil
}

func (r *memRevocations) Revoked(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tokens[token]
	return ok, nil
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := NewService(store, NewTokens("test-jwt-secret", time.Hour),
		&memRevocations{tokens: map[string]time.Time{}}, WithBcryptCost(bcrypt.MinCost))
	return svc, store
}

func riderCommand() RegisterCommand {
	return RegisterCommand{
		Role:     types.RoleRider,
		Name:     FullName{First: "Asha", Last: "Rao"},
		Email:    "Asha.Rao@Example.com ",
		Password: "Sup3r$ecret",
		Phone:    "+919812345678",
	}
}

func driverCommand() RegisterCommand {
	return RegisterCommand{
		Role:     types.RoleDriver,
		Name:     FullName{First: "Ravi", Last: "Kumar"},
		Email:    "ravi@example.com",
		Password: "Dr1ver!pass",
		Vehicle:  &Vehicle{Color: "yellow", Plate: "ka01-ab12", Capacity: 3, Type: types.VehicleAuto},
	}
}

func TestRegisterRider(t *testing.T) {
	svc, store := newTestService(t)

	sess, err := svc.Register(context.Background(), riderCommand())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "asha.rao@example.com", sess.Account.Email)
	assert.Nil(t, sess.Account.Vehicle)

	stored, err := store.FindByID(context.Background(), types.RoleRider, sess.Account.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3r$ecret", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Sup3r$ecret")))
}

func TestRegisterDriver(t *testing.T) {
	svc, _ := newTestService(t)

	sess, err := svc.Register(context.Background(), driverCommand())
	require.NoError(t, err)
	assert.Equal(t, types.RoleDriver, sess.Account.Role)
	assert.Equal(t, DriverInactive, sess.Account.Status)
	require.NotNil(t, sess.Account.Vehicle)
	assert.Equal(t, "KA01-AB12", sess.Account.Vehicle.Plate)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, riderCommand())
	require.NoError(t, err)

	dup := riderCommand()
	dup.Email = "asha.rao@example.com"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrEmailTaken)

	// The same email may hold one account per role.
	asDriver := driverCommand()
	asDriver.Email = dup.Email
	_, err = svc.Register(ctx, asDriver)
	assert.NoError(t, err)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(*RegisterCommand)
	}{
		{"short email", func(c *RegisterCommand) { c.Email = "a@b" }},
		{"malformed email", func(c *RegisterCommand) { c.Email = "not-an-email" }},
		{"missing first name", func(c *RegisterCommand) { c.Name.First = "  " }},
		{"long last name", func(c *RegisterCommand) { c.Name.Last = strings.Repeat("x", 51) }},
		{"short password", func(c *RegisterCommand) { c.Password = "Ab1!" }},
		{"password without special", func(c *RegisterCommand) { c.Password = "Abcdefg1" }},
		{"password without upper", func(c *RegisterCommand) { c.Password = "abcdef1!" }},
		{"long password", func(c *RegisterCommand) { c.Password = "Aa1!" + strings.Repeat("x", 125) }},
		{"bad phone", func(c *RegisterCommand) { c.Phone = "98123" }},
		{"bad role", func(c *RegisterCommand) { c.Role = "admin" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := riderCommand()
			tt.modify(&cmd)
			_, err := svc.Register(ctx, cmd)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterDriverVehicleValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(*RegisterCommand)
	}{
		{"no vehicle", func(c *RegisterCommand) { c.Vehicle = nil }},
		{"plate too long", func(c *RegisterCommand) { c.Vehicle.Plate = "KA01AB12345" }},
		{"plate symbols", func(c *RegisterCommand) { c.Vehicle.Plate = "KA 01" }},
		{"capacity zero", func(c *RegisterCommand) { c.Vehicle.Capacity = 0 }},
		{"capacity too large", func(c *RegisterCommand) { c.Vehicle.Capacity = 21 }},
		{"unknown type", func(c *RegisterCommand) { c.Vehicle.Type = "bus" }},
		{"no colour", func(c *RegisterCommand) { c.Vehicle.Color = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := driverCommand()
			tt.modify(&cmd)
			_, err := svc.Register(ctx, cmd)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, riderCommand())
	require.NoError(t, err)

	sess, err := svc.Login(ctx, types.RoleRider, "ASHA.RAO@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, err = svc.Login(ctx, types.RoleRider, "asha.rao@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, types.RoleRider, "nobody@example.com", "Sup3r$ecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Rider credentials do not open a driver session.
	_, err = svc.Login(ctx, types.RoleDriver, "asha.rao@example.com", "Sup3r$ecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateAndLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, err := svc.Register(ctx, driverCommand())
	require.NoError(t, err)

	p, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, types.DriverPrincipal(sess.Account.ID), p)

	require.NoError(t, svc.Logout(ctx, sess.Token))
	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticateRejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Valid signature but the account was never stored.
	ghost := &Account{ID: types.NewID(), Role: types.RoleRider}
	token, _, err := svc.tokens.Issue(ghost)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Signed with another secret.
	other := NewTokens("another-secret", time.Hour)
	forged, _, err := other.Issue(ghost)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, err := svc.Register(ctx, riderCommand())
	require.NoError(t, err)

	a, err := svc.Profile(ctx, sess.Account.Principal())
	require.NoError(t, err)
	assert.Equal(t, "Asha", a.Name.First)

	_, err = svc.Profile(ctx, types.DriverPrincipal(sess.Account.ID))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.Profile(ctx, types.Principal{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("Sup3r$ecret"))
	assert.True(t, StrongPassword("Aa1 aaaa"))
	assert.False(t, StrongPassword("Supersecret1"))
	assert.False(t, StrongPassword("SUPER$3CRET"))
	assert.False(t, StrongPassword("super$3cret"))
	assert.False(t, StrongPassword("Super$ecret"))
}
