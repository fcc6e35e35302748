package files

import (
	"time"

	"github.com/google/uuid"
)

type File struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update carries the fields to change; nil fields are left untouched
type Update struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
	Path    *string `json:"path,omitempty"`
}
