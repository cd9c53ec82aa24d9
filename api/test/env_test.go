package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/api"
	"github.com/DARK-V-98/oshadividarshana-api/api/background"
	"github.com/DARK-V-98/oshadividarshana-api/config"
	"github.com/DARK-V-98/oshadividarshana-api/core/auth"
	"github.com/DARK-V-98/oshadividarshana-api/core/claims"
	"github.com/DARK-V-98/oshadividarshana-api/core/user"
	"github.com/DARK-V-98/oshadividarshana-api/database"
	"github.com/DARK-V-98/oshadividarshana-api/rate"
	"github.com/DARK-V-98/oshadividarshana-api/storage"
	"github.com/DARK-V-98/oshadividarshana-api/validate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
)

const (
	testSecret    = "test-token-secret"
	testSignature = "test-signing-secret"
)

type TestEnv struct {
	URL        string
	Server     *httptest.Server
	DB         *sqlx.DB
	Store      *storage.Memory
	Signer     *storage.Signer
	Background *background.Background

	AdminID    string
	AdminToken string
	UserID     string
	UserToken  string
}

// noopMailer swallows the out-of-band notifications during tests.
type noopMailer struct{}

func (noopMailer) Send(to, subject, body string) error { return nil }

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}

	res, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	t.Cleanup(func() { pool.Purge(res) })

	cfg := config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       "localhost:" + res.GetPort("5432/tcp"),
		Name:       name,
		DisableTLS: true,
	}

	var db *sqlx.DB
	if err := pool.Retry(func() error {
		var err error
		db, err = database.Open(cfg)
		return err
	}); err != nil {
		return nil, fmt.Errorf("connecting to test database: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	log := logrus.New()
	store := storage.NewMemory()
	signer := storage.NewSigner(testSignature, "")
	bg := background.New(log)
	limiter := rate.NewLimiter(1000, time.Microsecond, time.Hour)

	env := &TestEnv{
		DB:         db,
		Store:      store,
		Signer:     signer,
		Background: bg,
	}

	if env.AdminID, env.AdminToken, err = seedUser(db, "admin@test.com", claims.RoleAdmin); err != nil {
		return nil, err
	}
	if env.UserID, env.UserToken, err = seedUser(db, "user@test.com", claims.RoleUser); err != nil {
		return nil, err
	}

	mux := api.APIMux(api.APIConfig{
		Log:            log,
		DB:             db,
		Store:          store,
		Signer:         signer,
		Notifier:       noopMailer{},
		TokenSecret:    testSecret,
		TokenTimeout:   time.Hour,
		Background:     bg,
		Limiter:        limiter,
		GrantTTL:       15 * time.Minute,
		StorageTimeout: 5 * time.Second,
	})

	env.Server = httptest.NewServer(mux)
	t.Cleanup(env.Server.Close)
	env.URL = env.Server.URL

	return env, nil
}

func seedUser(db *sqlx.DB, mail string, role string) (string, string, error) {
	now := time.Now().UTC()
	usr := user.User{
		ID:        validate.GenerateID(),
		Email:     mail,
		Name:      "Test " + role,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Create(context.TODO(), db, usr); err != nil {
		return "", "", fmt.Errorf("seeding %s: %w", mail, err)
	}

	token, err := auth.GenerateToken(testSecret, claims.Claims{
		UserID: usr.ID,
		Email:  usr.Email,
		Role:   usr.Role,
	}, time.Hour)
	if err != nil {
		return "", "", fmt.Errorf("issuing token for %s: %w", mail, err)
	}

	return usr.ID, token, nil
}

// request performs a JSON round trip against the test server, decoding
// the response into out when out is non-nil.
func (e *TestEnv) request(t *testing.T, method, path, token string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	r, err := http.NewRequest(method, e.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := http.DefaultClient.Do(r)
	if err != nil {
		t.Fatal(err)
	}

	if out != nil {
		defer w.Body.Close()
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}

	return w
}
