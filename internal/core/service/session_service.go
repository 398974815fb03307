package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/fieldops/companion/internal/core/domain"
	"github.com/fieldops/companion/internal/core/ports"
)

// ErrMissingCredentials is returned when the login form is incomplete; no
// network call is made.
var ErrMissingCredentials = errors.New("email and password are required")

// SessionService owns the credential lifecycle: login, logout, and the
// startup profile bootstrap from a stored token.
type SessionService struct {
	api     ports.APIClient
	creds   ports.CredentialStore
	kv      ports.KVStore
	session *domain.Session
	log     zerolog.Logger
}

func NewSessionService(
	api ports.APIClient,
	creds ports.CredentialStore,
	kv ports.KVStore,
	session *domain.Session,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{api: api, creds: creds, kv: kv, session: session, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user"`
}

// Login exchanges credentials for a token pair, persists the pair plus the
// role tag, and populates the session context.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	var resp loginResponse
	err := s.api.Do(ctx, ports.APIRequest{
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Body:        loginRequest{Email: email, Password: password},
		Unversioned: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, errors.New("login: malformed response from backend")
	}

	if err := s.creds.SetAccessToken(resp.AccessToken); err != nil {
		return nil, err
	}
	if err := s.creds.SetRefreshToken(resp.RefreshToken); err != nil {
		return nil, err
	}

	role := resp.User.Role
	if role == "" {
		role = roleFromClaims(resp.AccessToken)
	}
	if err := s.creds.SetRole(role); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist role tag")
	}

	s.populate(ctx, resp.User, role)
	s.log.Info().Str("user_id", resp.User.ID).Msg("logged in")
	return resp.User, nil
}

// Bootstrap populates the session from a stored token by fetching the
// profile. Returns domain.ErrNotAuthenticated without any network call when
// no token is stored, so a cold start lands straight on login.
func (s *SessionService) Bootstrap(ctx context.Context) (*domain.User, error) {
	token, err := s.creds.AccessToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	var user domain.User
	err = s.api.Do(ctx, ports.APIRequest{
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Unversioned: true,
		RequireAuth: true,
	}, &user)
	if err != nil {
		// An auth failure already tore credentials down in the client; a
		// transient failure keeps the token for the next attempt. Either way
		// the caller gets a user-visible error, so a token never lingers
		// silently while the profile fetch keeps failing.
		return nil, err
	}

	role := user.Role
	if role == "" {
		if stored, rerr := s.creds.Role(); rerr == nil && stored != "" {
			role = stored
		} else {
			role = roleFromClaims(token)
		}
	}

	s.populate(ctx, &user, role)
	return &user, nil
}

// Logout clears stored credentials and the session context. Local state such
// as the active location survives for the next login on this device.
func (s *SessionService) Logout(_ context.Context) error {
	err := s.creds.ClearAll()
	s.session.Clear()
	s.log.Info().Msg("logged out")
	return err
}

// SetLocation records the active location id in local storage and the
// session context, so subsequent calls carry the location header.
func (s *SessionService) SetLocation(ctx context.Context, locationID string) error {
	if err := s.kv.Set(ctx, ports.KeyLocationID, locationID); err != nil {
		return err
	}
	s.session.SetLocationID(locationID)
	return nil
}

func (s *SessionService) populate(ctx context.Context, user *domain.User, role string) {
	s.session.SetUser(user)
	s.session.SetRole(role)

	loc, err := s.kv.Get(ctx, ports.KeyLocationID)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read stored location")
	}
	if loc == "" {
		loc = user.LocationID
	}
	s.session.SetLocationID(loc)
}

// roleFromClaims peeks at the access token's role claim without verifying
// the signature. The backend owns verification; this is only a local hint
// used when neither the profile nor the stored tag carries a role.
func roleFromClaims(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if role, ok := claims["role"].(string); ok {
		return role
	}
	return ""
}
