// Package inbox manages studio queries and contact messages. Both are
// admin-only on read and write.
package inbox

import (
	"time"

	"github.com/google/uuid"
)

// QueryStatus enumerates the query lifecycle.
type QueryStatus string

const (
	QueryOpen     QueryStatus = "open"
	QueryResolved QueryStatus = "resolved"
)

// Query is a question submitted through the studio site.
type Query struct {
	ID        uuid.UUID
	Email     string
	Subject   string
	Body      string
	Status    QueryStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a contact-form message.
type Message struct {
	ID        uuid.UUID
	Email     string
	Body      string
	ReadAt    *time.Time
	CreatedAt time.Time
}
