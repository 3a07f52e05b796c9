package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pantryapp/pantry-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentUser",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/me",
		Summary:     "Update current user",
		Description: "Updates the authenticated user's profile. Omitted fields are left unchanged.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMySessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/sessions",
		Summary:     "List sessions",
		Description: "Returns the authenticated user's active sessions",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMySessions)
}

// === DTOs ===

// GetCurrentUserInput contains parameters for fetching the current user.
type GetCurrentUserInput struct {
	Authorization string `header:"Authorization"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// UpdateCurrentUserRequest is the request body for profile updates.
type UpdateCurrentUserRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=254" doc:"New email address"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=1024" doc:"New password"`
	Name     *string `json:"name,omitempty" validate:"omitempty,max=255" doc:"New display name"`
}

// UpdateCurrentUserInput wraps the profile update request for Huma.
type UpdateCurrentUserInput struct {
	Authorization string `header:"Authorization"`
	Body          UpdateCurrentUserRequest
}

// ListMySessionsInput contains parameters for listing sessions.
type ListMySessionsInput struct {
	Authorization string `header:"Authorization"`
}

// SessionInfo describes one active session.
type SessionInfo struct {
	ID         string    `json:"id" doc:"Session ID"`
	IPAddress  string    `json:"ip_address,omitempty" doc:"Last known client IP"`
	CreatedAt  time.Time `json:"created_at" doc:"Session creation time"`
	LastSeenAt time.Time `json:"last_seen_at" doc:"Last activity time"`
	ExpiresAt  time.Time `json:"expires_at" doc:"Refresh token expiry"`
}

// ListMySessionsResponse contains a user's active sessions.
type ListMySessionsResponse struct {
	Sessions []SessionInfo `json:"sessions" doc:"Active sessions"`
}

// ListMySessionsOutput wraps the session list for Huma.
type ListMySessionsOutput struct {
	Body ListMySessionsResponse
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, input *GetCurrentUserInput) (*UserOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.services.User.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleUpdateCurrentUser(ctx context.Context, input *UpdateCurrentUserInput) (*UserOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.services.User.UpdateMe(ctx, userID, service.UpdateMeRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleListMySessions(ctx context.Context, input *ListMySessionsInput) (*ListMySessionsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	sessions, err := s.services.Session.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]SessionInfo, len(sessions))
	for i, sess := range sessions {
		resp[i] = SessionInfo{
			ID:         sess.ID,
			IPAddress:  sess.IPAddress,
			CreatedAt:  sess.CreatedAt,
			LastSeenAt: sess.LastSeenAt,
			ExpiresAt:  sess.ExpiresAt,
		}
	}

	return &ListMySessionsOutput{Body: ListMySessionsResponse{Sessions: resp}}, nil
}
