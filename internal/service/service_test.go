package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pantryapp/pantry-server/internal/auth"
	"github.com/pantryapp/pantry-server/internal/media/images"
	"github.com/pantryapp/pantry-server/internal/store/sqlite"
)

// testKeyHex is a deterministic 32-byte key for token tests.
const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type testEnv struct {
	store       *sqlite.Store
	storage     *images.Storage
	authService *AuthService
	sessions    *SessionService
	users       *UserService
	recipes     *RecipeService
	tags        *TagService
	ingredients *IngredientService
}

// newTestEnv wires all services against a temporary database and image dir.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	storage, err := images.NewStorage(filepath.Join(dir, "images"))
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	sessions := NewSessionService(s, tokenService, logger)

	return &testEnv{
		store:       s,
		storage:     storage,
		authService: NewAuthService(s, tokenService, sessions, logger),
		sessions:    sessions,
		users:       NewUserService(s, logger),
		recipes:     NewRecipeService(s, storage, logger),
		tags:        NewTagService(s, logger),
		ingredients: NewIngredientService(s, logger),
	}
}

var testUserSeq int

// registerTestUser creates a user through the normal registration flow
// and returns the auth response. Each call uses a fresh email.
func registerTestUser(t *testing.T, env *testEnv) *AuthResponse {
	t.Helper()

	testUserSeq++
	resp, err := env.authService.Register(context.Background(), RegisterRequest{
		Email:    fmt.Sprintf("user%d@example.com", testUserSeq),
		Password: "password123",
		Name:     "Test User",
	})
	require.NoError(t, err)
	return resp
}
