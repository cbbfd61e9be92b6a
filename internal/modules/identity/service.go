// README: Identity service: registration, login, token authentication and logout.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ryde/internal/types"
)

// Revocations tracks tokens invalidated before their expiry.
type Revocations interface {
	Revoke(ctx context.Context, token string, until time.Time) error
	Revoked(ctx context.Context, token string) (bool, error)
}

type Service struct {
	store      Store
	tokens     *Tokens
	revoked    Revocations
	bcryptCost int
	log        *zap.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(store Store, tokens *Tokens, revoked Revocations, opts ...Option) *Service {
	s := &Service{
		store:      store,
		tokens:     tokens,
		revoked:    revoked,
		bcryptCost: bcrypt.DefaultCost,
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterCommand struct {
	Role        types.Role
	Name        FullName
	Email       string `validate:"required,min=5,email"`
	Password    string `validate:"required,min=8,max=128,password"`
	Phone       string `validate:"omitempty,e164"`
	DeviceToken string `validate:"omitempty,max=4096"`
	Vehicle     *Vehicle
}

// Session is an account with a freshly issued token.
type Session struct {
	Account   *Account
	Token     string
	ExpiresAt time.Time
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Session, error) {
	cmd.Email = normalizeEmail(cmd.Email)
	cmd.Name.First = strings.TrimSpace(cmd.Name.First)
	cmd.Name.Last = strings.TrimSpace(cmd.Name.Last)
	if !cmd.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, cmd.Role)
	}
	if cmd.Role == types.RoleDriver && cmd.Vehicle == nil {
		return nil, fmt.Errorf("%w: drivers must register a vehicle", ErrInvalidInput)
	}
	if cmd.Role == types.RoleRider {
		cmd.Vehicle = nil
	}
	if cmd.Vehicle != nil {
		cmd.Vehicle.Color = strings.TrimSpace(cmd.Vehicle.Color)
		cmd.Vehicle.Plate = strings.ToUpper(strings.TrimSpace(cmd.Vehicle.Plate))
	}
	if err := validateStruct(cmd); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByEmail(ctx, cmd.Role, cmd.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	a := &Account{
		ID:           types.NewID(),
		Role:         cmd.Role,
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: string(hash),
		Phone:        cmd.Phone,
		DeviceToken:  cmd.DeviceToken,
		Vehicle:      cmd.Vehicle,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if a.Role == types.RoleDriver {
		a.Status = DriverInactive
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("account registered", zap.String("role", string(a.Role)), zap.String("account_id", a.ID.String()))
	return s.session(a)
}

// Login never says whether the email or the password was wrong.
func (s *Service) Login(ctx context.Context, role types.Role, email, password string) (*Session, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	a, err := s.store.FindByEmail(ctx, role, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(a)
}

// Authenticate turns a bearer token into a principal whose account still exists.
func (s *Service) Authenticate(ctx context.Context, token string) (types.Principal, error) {
	if token == "" {
		return types.Principal{}, ErrUnauthorized
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return types.Principal{}, err
	}
	if s.revoked != nil {
		revoked, err := s.revoked.Revoked(ctx, token)
		if err != nil {
			return types.Principal{}, err
		}
		if revoked {
			return types.Principal{}, fmt.Errorf("%w: token revoked", ErrUnauthorized)
		}
	}
	p := claims.Principal()
	if _, err := s.store.FindByID(ctx, p.Role, p.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.Principal{}, fmt.Errorf("%w: account gone", ErrUnauthorized)
		}
		return types.Principal{}, err
	}
	return p, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	exp, err := claims.Expiry()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if s.revoked == nil {
		return nil
	}
	return s.revoked.Revoke(ctx, token, exp)
}

func (s *Service) Profile(ctx context.Context, p types.Principal) (*Account, error) {
	if p.ID == "" || !p.Role.Valid() {
		return nil, ErrUnauthorized
	}
	return s.store.FindByID(ctx, p.Role, p.ID)
}

func (s *Service) session(a *Account) (*Session, error) {
	token, exp, err := s.tokens.Issue(a)
	if err != nil {
		return nil, err
	}
	return &Session{Account: a, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
