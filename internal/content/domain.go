// Package content manages the studio's published articles and mantra
// library. Reads are public; writes belong to curators and admins.
package content

import (
	"time"

	"github.com/google/uuid"
)

// Article is a piece of published studio content.
type Article struct {
	ID        uuid.UUID
	Slug      string
	Title     string
	Body      string
	Published bool
	AuthorID  uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}
