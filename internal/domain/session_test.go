package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		session *Session
		expired bool
	}{
		{
			name: "future expiry",
			session: &Session{
				ExpiresAt: time.Now().Add(time.Hour),
			},
			expired: false,
		},
		{
			name: "past expiry",
			session: &Session{
				ExpiresAt: time.Now().Add(-time.Minute),
			},
			expired: true,
		},
		{
			name:    "zero expiry",
			session: &Session{},
			expired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, tt.session.IsExpired())
		})
	}
}

func TestSession_Touch(t *testing.T) {
	session := &Session{
		ID:         "session-123",
		UserID:     "user-456",
		LastSeenAt: time.Now().Add(-time.Hour),
	}

	before := session.LastSeenAt
	session.Touch()

	assert.True(t, session.LastSeenAt.After(before))
}
