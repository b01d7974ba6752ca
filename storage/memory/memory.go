package memory

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/oauthkit/grantflow/storage"
)

// Store is an in-memory implementation of every storage port. It is safe
// for concurrent use and keeps records until the process exits; expiration
// is enforced by the callers comparing timestamps, not by cleanup here.
//
// Intended for development and tests. Production deployments should back
// the ports with a shared datastore so single-use enforcement holds across
// instances.
type Store struct {
	mu            sync.RWMutex
	clients       map[string]*storage.Client
	accessTokens  map[string]*storage.AccessToken
	codes         map[string]*storage.AuthorizationCode
	refreshTokens map[string]*storage.RefreshToken
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		clients:       make(map[string]*storage.Client),
		accessTokens:  make(map[string]*storage.AccessToken),
		codes:         make(map[string]*storage.AuthorizationCode),
		refreshTokens: make(map[string]*storage.RefreshToken),
	}
}

// SaveClient registers a client. The caller provides the secret hash;
// use HashSecret for confidential clients.
func (s *Store) SaveClient(client *storage.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *client
	copied.RedirectURIs = append([]string(nil), client.RedirectURIs...)
	s.clients[client.ClientID] = &copied
}

// FindClient retrieves a client by ID.
func (s *Store) FindClient(_ context.Context, clientID string) (*storage.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[clientID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *client
	copied.RedirectURIs = append([]string(nil), client.RedirectURIs...)
	return &copied, nil
}

// ValidateClientSecret checks a secret against the client's stored bcrypt
// hash.
func (s *Store) ValidateClientSecret(ctx context.Context, clientID, clientSecret string) error {
	client, err := s.FindClient(ctx, clientID)
	if err != nil {
		return err
	}
	if client.SecretHash == "" {
		return fmt.Errorf("client %q has no secret configured", clientID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(clientSecret)); err != nil {
		return fmt.Errorf("invalid client secret: %w", err)
	}
	return nil
}

// WriteAccessToken persists an access token, overwriting any existing
// record with the same value.
func (s *Store) WriteAccessToken(_ context.Context, token *storage.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.accessTokens[token.Value] = &copied
	return nil
}

// FindAccessToken retrieves an access token by its value.
func (s *Store) FindAccessToken(_ context.Context, value string) (*storage.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.accessTokens[value]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

// WriteAuthorizationCode persists an authorization code, overwriting any
// existing record with the same value. Marking a code used goes through
// the same write.
func (s *Store) WriteAuthorizationCode(_ context.Context, code *storage.AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *code
	s.codes[code.Value] = &copied
	return nil
}

// FindAuthorizationCode retrieves an authorization code by its value.
func (s *Store) FindAuthorizationCode(_ context.Context, value string) (*storage.AuthorizationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.codes[value]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *code
	return &copied, nil
}

// WriteRefreshToken persists a refresh token, overwriting any existing
// record with the same value.
func (s *Store) WriteRefreshToken(_ context.Context, token *storage.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.refreshTokens[token.Value] = &copied
	return nil
}

// FindRefreshToken retrieves a refresh token by its value.
func (s *Store) FindRefreshToken(_ context.Context, value string) (*storage.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.refreshTokens[value]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

// HashSecret produces a bcrypt hash suitable for Client.SecretHash.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

var (
	_ storage.ClientStore            = (*Store)(nil)
	_ storage.AccessTokenStore       = (*Store)(nil)
	_ storage.AuthorizationCodeStore = (*Store)(nil)
	_ storage.RefreshTokenStore      = (*Store)(nil)
)
