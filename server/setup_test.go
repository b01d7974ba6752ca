package server

import (
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/oauthkit/grantflow/internal/testutil"
	"github.com/oauthkit/grantflow/storage"
	"github.com/oauthkit/grantflow/storage/memory"
	"github.com/oauthkit/grantflow/token"
)

// testEnv assembles the handlers against an in-memory store with a
// controllable clock, so expiry tests can move time instead of sleeping.
type testEnv struct {
	store    *memory.Store
	clock    *testutil.Clock
	factory  *token.Factory
	implicit *ImplicitGrant
	authCode *AuthorizationCodeGrant
	identity *testutil.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	store.SaveClient(&storage.Client{
		ClientID:     "test",
		RedirectURIs: []string{"http://example.com"},
	})

	clock := testutil.NewClock(time.Unix(1_700_000_000, 0))
	factory := token.NewFactory("test-issuer", token.WithClock(clock.Now))

	config := Config{
		ExpirationTime:        3600,
		RefreshTokenExtraTime: 86400,
		AllowedSchemes:        map[string]int{"http": 80, "https": 443},
	}

	implicit, err := NewImplicitGrant(config, factory, store, store, logger)
	if err != nil {
		t.Fatalf("NewImplicitGrant() error = %v", err)
	}

	authCode, err := NewAuthorizationCodeGrant(config, factory, store, store, store, store, logger)
	if err != nil {
		t.Fatalf("NewAuthorizationCodeGrant() error = %v", err)
	}

	return &testEnv{
		store:    store,
		clock:    clock,
		factory:  factory,
		implicit: implicit,
		authCode: authCode,
		identity: &testutil.Identity{ID: "user-1"},
	}
}

func authorizeParams() url.Values {
	return url.Values{
		"client_id":    {"test"},
		"redirect_uri": {"http://example.com"},
	}
}

// parameterMessage digs the keyed message out of a handler error and fails
// the test if the error is not a ParameterError or lacks the key.
func parameterMessage(t *testing.T, err error, key string) string {
	t.Helper()

	paramErr, ok := err.(*ParameterError)
	if !ok {
		t.Fatalf("error = %v, want *ParameterError", err)
	}
	message, ok := paramErr.Messages.Get(key)
	if !ok {
		t.Fatalf("ParameterError has no message for %q, keys = %v", key, paramErr.Messages.Keys())
	}
	return message
}

func redirectQuery(t *testing.T, outcome *Outcome) url.Values {
	t.Helper()

	if outcome.Kind != OutcomeRedirect {
		t.Fatalf("outcome kind = %d, want redirect", outcome.Kind)
	}
	return outcome.RedirectURI.Query()
}
