// Package bookings manages class bookings for the admin console.
package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates the booking lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusAttended  Status = "attended"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusAttended:
		return true
	}
	return false
}

// Booking represents a reserved spot in a class.
type Booking struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	ClassName string
	StartsAt  time.Time
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}
