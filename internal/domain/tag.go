package domain

import "time"

// Tag represents a user-owned label for categorizing recipes.
// Names are stored in normalized form and are unique per user; two users
// can each have their own "Vegan" tag.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}
