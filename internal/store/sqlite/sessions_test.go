package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/pantryapp/pantry-server/internal/domain"
	"github.com/pantryapp/pantry-server/internal/id"
	"github.com/pantryapp/pantry-server/internal/store"
)

func createTestSession(t *testing.T, s *Store, userID, hash string, expiresAt time.Time) *domain.Session {
	t.Helper()
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:               id.MustGenerate("session"),
		UserID:           userID,
		RefreshTokenHash: hash,
		ExpiresAt:        expiresAt,
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        "192.168.1.10",
	}
	if err := s.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}

func TestCreateSession_GetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	sess := createTestSession(t, s, u.ID, "hash-abc", time.Now().UTC().Add(time.Hour))

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID, got.UserID)
	}
	if got.RefreshTokenHash != "hash-abc" {
		t.Errorf("expected stored hash, got %s", got.RefreshTokenHash)
	}
	if got.IPAddress != "192.168.1.10" {
		t.Errorf("expected IP to persist, got %s", got.IPAddress)
	}
}

func TestGetSessionByRefreshHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	sess := createTestSession(t, s, u.ID, "hash-lookup", time.Now().UTC().Add(time.Hour))

	got, err := s.GetSessionByRefreshHash(ctx, "hash-lookup")
	if err != nil {
		t.Fatalf("get session by hash: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("expected session %s, got %s", sess.ID, got.ID)
	}

	_, err = s.GetSessionByRefreshHash(ctx, "hash-unknown")
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSession_RotatesHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	sess := createTestSession(t, s, u.ID, "hash-old", time.Now().UTC().Add(time.Hour))

	sess.RefreshTokenHash = "hash-new"
	sess.LastSeenAt = time.Now().UTC()
	if err := s.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("update session: %v", err)
	}

	// Old hash no longer resolves; new one does.
	if _, err := s.GetSessionByRefreshHash(ctx, "hash-old"); err != store.ErrNotFound {
		t.Fatalf("expected old hash to be gone, got %v", err)
	}
	got, err := s.GetSessionByRefreshHash(ctx, "hash-new")
	if err != nil {
		t.Fatalf("get rotated session: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("expected session %s, got %s", sess.ID, got.ID)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	sess := createTestSession(t, s, u.ID, "hash-del", time.Now().UTC().Add(time.Hour))

	if err := s.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	if _, err := s.GetSession(ctx, sess.ID); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := s.DeleteSession(ctx, sess.ID); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	expired := createTestSession(t, s, u.ID, "hash-expired", time.Now().UTC().Add(-time.Hour))
	active := createTestSession(t, s, u.ID, "hash-active", time.Now().UTC().Add(time.Hour))

	n, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("delete expired sessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted session, got %d", n)
	}

	if _, err := s.GetSession(ctx, expired.ID); err != store.ErrNotFound {
		t.Fatalf("expected expired session gone, got %v", err)
	}
	if _, err := s.GetSession(ctx, active.ID); err != nil {
		t.Fatalf("expected active session to remain: %v", err)
	}
}

func TestSessions_CascadeOnUserDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	sess := createTestSession(t, s, u.ID, "hash-cascade", time.Now().UTC().Add(time.Hour))

	// Deleting the user row cascades to sessions via foreign key.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID); err != nil {
		t.Fatalf("delete user row: %v", err)
	}

	if _, err := s.GetSession(ctx, sess.ID); err != store.ErrNotFound {
		t.Fatalf("expected session to cascade, got %v", err)
	}
}
