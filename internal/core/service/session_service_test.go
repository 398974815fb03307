package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/fieldops/companion/internal/core/domain"
	"github.com/fieldops/companion/internal/core/ports"
)

type memCreds struct {
	access  string
	refresh string
	role    string
}

func (m *memCreds) AccessToken() (string, error)       { return m.access, nil }
func (m *memCreds) SetAccessToken(t string) error      { m.access = t; return nil }
func (m *memCreds) RefreshToken() (string, error)      { return m.refresh, nil }
func (m *memCreds) SetRefreshToken(t string) error     { m.refresh = t; return nil }
func (m *memCreds) Role() (string, error)              { return m.role, nil }
func (m *memCreds) SetRole(r string) error             { m.role = r; return nil }
func (m *memCreds) ClearAll() error                    { *m = memCreds{}; return nil }

type memKV map[string]string

func (m memKV) Get(_ context.Context, key string) (string, error) { return m[key], nil }
func (m memKV) Set(_ context.Context, key, value string) error    { m[key] = value; return nil }
func (m memKV) Delete(_ context.Context, key string) error        { delete(m, key); return nil }

func newSessionSvc(api *stubAPI) (*SessionService, *memCreds, memKV, *domain.Session) {
	creds := &memCreds{}
	kv := memKV{}
	session := &domain.Session{}
	return NewSessionService(api, creds, kv, session, zerolog.Nop()), creds, kv, session
}

func TestSessionService_Login_PersistsTokensAndPopulatesSession(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, loginResponse{
			AccessToken:  "tok-access",
			RefreshToken: "tok-refresh",
			User: &domain.User{
				ID:         "u1",
				Email:      "tech@example.com",
				Role:       domain.RoleTechnician,
				LocationID: "loc-9",
			},
		})
	}}
	svc, creds, _, session := newSessionSvc(api)

	user, err := svc.Login(context.Background(), "tech@example.com", "secret")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("expected user u1, got %q", user.ID)
	}
	if creds.access != "tok-access" || creds.refresh != "tok-refresh" {
		t.Error("expected token pair persisted")
	}
	if creds.role != domain.RoleTechnician {
		t.Errorf("expected role persisted, got %q", creds.role)
	}
	if !session.Active() || session.UserID() != "u1" {
		t.Error("expected session populated")
	}
	if session.LocationID() != "loc-9" {
		t.Errorf("expected location from profile, got %q", session.LocationID())
	}

	if len(api.calls) != 1 {
		t.Fatalf("expected one API call, got %d", len(api.calls))
	}
	req := api.calls[0]
	if req.Path != "/auth/login" || !req.Unversioned || req.RequireAuth {
		t.Errorf("unexpected login request: %+v", req)
	}
}

func TestSessionService_Login_MissingFields(t *testing.T) {
	api := &stubAPI{}
	svc, _, _, _ := newSessionSvc(api)

	if _, err := svc.Login(context.Background(), "", "secret"); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got: %v", err)
	}
	if _, err := svc.Login(context.Background(), "tech@example.com", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got: %v", err)
	}
	if len(api.calls) != 0 {
		t.Errorf("expected no API calls, got %d", len(api.calls))
	}
}

func TestSessionService_Bootstrap_NoStoredToken(t *testing.T) {
	api := &stubAPI{}
	svc, _, _, _ := newSessionSvc(api)

	_, err := svc.Bootstrap(context.Background())
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got: %v", err)
	}
	if len(api.calls) != 0 {
		t.Errorf("expected no network traffic on a cold start, got %d calls", len(api.calls))
	}
}

func TestSessionService_Bootstrap_PopulatesFromProfile(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, domain.User{ID: "u1", Role: domain.RoleManager, LocationID: "loc-1"})
	}}
	svc, creds, kv, session := newSessionSvc(api)
	creds.access = "tok-stored"
	kv[ports.KeyLocationID] = "loc-override"

	user, err := svc.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.ID != "u1" || session.Role() != domain.RoleManager {
		t.Errorf("expected session populated from profile, got role %q", session.Role())
	}
	// A locally chosen location beats the profile default.
	if session.LocationID() != "loc-override" {
		t.Errorf("expected stored location to win, got %q", session.LocationID())
	}
	if api.calls[0].Path != "/auth/me" || !api.calls[0].RequireAuth {
		t.Errorf("unexpected profile request: %+v", api.calls[0])
	}
}

func TestSessionService_Logout_ClearsCredentialsKeepsLocation(t *testing.T) {
	api := &stubAPI{}
	svc, creds, kv, session := newSessionSvc(api)
	creds.access = "tok"
	creds.refresh = "ref"
	kv[ports.KeyLocationID] = "loc-1"
	session.SetUser(&domain.User{ID: "u1"})

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if creds.access != "" || creds.refresh != "" {
		t.Error("expected credentials cleared")
	}
	if session.Active() {
		t.Error("expected session cleared")
	}
	if kv[ports.KeyLocationID] != "loc-1" {
		t.Error("expected location to survive logout")
	}
}

func TestSessionService_SetLocation(t *testing.T) {
	svc, _, kv, session := newSessionSvc(&stubAPI{})

	if err := svc.SetLocation(context.Background(), "loc-7"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if kv[ports.KeyLocationID] != "loc-7" {
		t.Error("expected location persisted")
	}
	if session.LocationID() != "loc-7" {
		t.Error("expected session location updated")
	}
}

func TestRoleFromClaims(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u1",
		"role": domain.RoleManager,
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if got := roleFromClaims(signed); got != domain.RoleManager {
		t.Errorf("expected role claim extracted, got %q", got)
	}
	if got := roleFromClaims("not-a-jwt"); got != "" {
		t.Errorf("expected empty role for garbage token, got %q", got)
	}
}
