package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/oauthkit/grantflow/storage"
)

type testIdentity struct{ id string }

func (i *testIdentity) IdentityID() string { return i.id }

func TestStoreClients(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.FindClient(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FindClient(missing) error = %v, want ErrNotFound", err)
	}

	store.SaveClient(&storage.Client{
		ClientID:     "test",
		RedirectURIs: []string{"http://example.com"},
	})

	client, err := store.FindClient(ctx, "test")
	if err != nil {
		t.Fatalf("FindClient() error = %v", err)
	}
	if !client.HasRedirectURI("http://example.com") {
		t.Error("registered redirect URI is missing")
	}

	// The returned copy must not alias the stored record.
	client.RedirectURIs[0] = "http://evil.example.com"
	again, err := store.FindClient(ctx, "test")
	if err != nil {
		t.Fatalf("FindClient() error = %v", err)
	}
	if !again.HasRedirectURI("http://example.com") {
		t.Error("mutating a returned client changed the stored record")
	}
}

func TestStoreClientSecret(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	hash, err := HashSecret("s3cret")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	store.SaveClient(&storage.Client{ClientID: "confidential", SecretHash: hash})
	store.SaveClient(&storage.Client{ClientID: "public"})

	if err := store.ValidateClientSecret(ctx, "confidential", "s3cret"); err != nil {
		t.Errorf("ValidateClientSecret(correct) error = %v", err)
	}
	if err := store.ValidateClientSecret(ctx, "confidential", "wrong"); err == nil {
		t.Error("ValidateClientSecret(wrong) error = nil, want failure")
	}
	if err := store.ValidateClientSecret(ctx, "public", "anything"); err == nil {
		t.Error("ValidateClientSecret on secretless client error = nil, want failure")
	}
}

func TestStoreAccessTokens(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	token := &storage.AccessToken{
		Value:     "tok",
		Identity:  &testIdentity{id: "user-1"},
		Client:    &storage.Client{ClientID: "test"},
		ExpiresAt: 100,
	}
	if err := store.WriteAccessToken(ctx, token); err != nil {
		t.Fatalf("WriteAccessToken() error = %v", err)
	}

	found, err := store.FindAccessToken(ctx, "tok")
	if err != nil {
		t.Fatalf("FindAccessToken() error = %v", err)
	}
	if found.Identity.IdentityID() != "user-1" {
		t.Errorf("identity = %q, want %q", found.Identity.IdentityID(), "user-1")
	}

	if _, err := store.FindAccessToken(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FindAccessToken(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStoreAuthorizationCodeUsedFlag(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	code := &storage.AuthorizationCode{
		Value:     "code-1",
		Identity:  &testIdentity{id: "user-1"},
		Client:    &storage.Client{ClientID: "test"},
		ExpiresAt: 100,
	}
	if err := store.WriteAuthorizationCode(ctx, code); err != nil {
		t.Fatalf("WriteAuthorizationCode() error = %v", err)
	}

	found, err := store.FindAuthorizationCode(ctx, "code-1")
	if err != nil {
		t.Fatalf("FindAuthorizationCode() error = %v", err)
	}

	// Consuming the code rewrites it with Used set; a later read must see
	// the update.
	found.Used = true
	if err := store.WriteAuthorizationCode(ctx, found); err != nil {
		t.Fatalf("rewrite error = %v", err)
	}

	again, err := store.FindAuthorizationCode(ctx, "code-1")
	if err != nil {
		t.Fatalf("FindAuthorizationCode() error = %v", err)
	}
	if !again.Used {
		t.Error("Used update was not persisted")
	}
}

func TestStoreRefreshTokens(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	access := &storage.AccessToken{
		Value:    "tok",
		Identity: &testIdentity{id: "user-1"},
		Client:   &storage.Client{ClientID: "test"},
	}
	refresh := &storage.RefreshToken{Value: "ref", AccessToken: access, ExpiresAt: 200}
	if err := store.WriteRefreshToken(ctx, refresh); err != nil {
		t.Fatalf("WriteRefreshToken() error = %v", err)
	}

	found, err := store.FindRefreshToken(ctx, "ref")
	if err != nil {
		t.Fatalf("FindRefreshToken() error = %v", err)
	}
	if found.Identity().IdentityID() != "user-1" {
		t.Errorf("identity = %q, want %q", found.Identity().IdentityID(), "user-1")
	}
	if found.Client().ClientID != "test" {
		t.Errorf("client = %q, want %q", found.Client().ClientID, "test")
	}
}
