package types

import (
	"github.com/google/uuid"
	"time"
)

type (
	// RepositoryCredential is the password protecting the restic repository for
	// one client/site pair. Generated exactly once and never mutated afterwards:
	// regenerating it would make every snapshot in the repository unreadable.
	RepositoryCredential struct {
		ID             uuid.UUID  `gorm:"primaryKey" json:"id"`
		ClientID       uuid.UUID  `gorm:"not null;uniqueIndex:idx_credential_scope" json:"client_id"`
		SiteID         uuid.UUID  `gorm:"not null;uniqueIndex:idx_credential_scope" json:"site_id"`
		Password       string     `json:"-"`
		AcknowledgedAt *time.Time `json:"acknowledged_at"`
		CreatedAt      time.Time  `json:"created_at"`
	}

	CredentialResponse struct {
		ID             uuid.UUID  `json:"id"`
		ClientID       uuid.UUID  `json:"client_id"`
		SiteID         uuid.UUID  `json:"site_id"`
		Password       string     `json:"password,omitempty"`
		Fresh          bool       `json:"fresh"`
		AcknowledgedAt *time.Time `json:"acknowledged_at"`
	}
)

func (c *RepositoryCredential) Acknowledged() bool {
	return c.AcknowledgedAt != nil
}
