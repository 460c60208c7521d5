package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant owns sensors and sources. DefaultTimezone applies to sensors created
// without an explicit timezone.
type Tenant struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DefaultTimezone string    `json:"default_timezone"`
	APIKeyHash      string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
