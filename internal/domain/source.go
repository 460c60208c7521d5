package domain

import (
	"time"

	"github.com/google/uuid"
)

// BeliefSource is the canonical record of who or what holds a belief.
type BeliefSource struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
