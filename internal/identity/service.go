package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"workshop/internal/api"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserInactive       = errors.New("user is inactive")
)

// resolveTimeout bounds identity-store lookups so a stalled database
// surfaces as UPSTREAM_UNAVAILABLE instead of a hanging request.
const resolveTimeout = 3 * time.Second

type Service struct {
	Repo   *Repository
	Secret []byte
	TTL    time.Duration
}

// Login verifies credentials and opens a session. The role is read
// from the users table here and baked into the signed token; nothing
// downstream trusts a client-supplied role.
func (s *Service) Login(ctx context.Context, email, password string) (string, *api.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	u, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, &api.UpstreamError{Op: "identity.login", Err: err}
	}
	if !u.Active {
		return "", nil, ErrUserInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	jti := uuid.NewString()
	token, err := SignSessionToken(u.ID, string(u.Role), u.Name, jti, s.Secret, now, s.TTL)
	if err != nil {
		return "", nil, err
	}
	if err := s.Repo.CreateSession(ctx, jti, u.ID, now.Add(s.TTL)); err != nil {
		return "", nil, &api.UpstreamError{Op: "identity.login", Err: err}
	}

	return token, &api.Principal{UserID: u.ID, Role: u.Role, Name: u.Name}, nil
}

// Resolve implements api.PrincipalResolver.
func (s *Service) Resolve(ctx context.Context, token string) (*api.Principal, error) {
	claims, err := VerifySessionToken(token, s.Secret, time.Now())
	if err != nil {
		return nil, ErrInvalidToken
	}
	role, ok := api.ParseRole(claims.Role)
	if !ok {
		return nil, ErrInvalidToken
	}

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	live, err := s.Repo.SessionLive(ctx, claims.ID, time.Now())
	if err != nil {
		return nil, &api.UpstreamError{Op: "identity.resolve", Err: err}
	}
	if !live {
		return nil, ErrInvalidToken
	}

	return &api.Principal{UserID: claims.Subject, Role: role, Name: claims.Name}, nil
}

// Logout revokes the session behind the token. An unverifiable token is
// not an error worth surfacing; logout is idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := VerifySessionToken(token, s.Secret, time.Now())
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	if err := s.Repo.RevokeSession(ctx, claims.ID); err != nil {
		return &api.UpstreamError{Op: "identity.logout", Err: err}
	}
	return nil
}
