package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"strings"
	"time"
)

type (
	Client struct {
		ID          uuid.UUID      `gorm:"primaryKey" json:"id"`
		Name        string         `json:"name"`
		ShortName   string         `gorm:"uniqueIndex" json:"short_name"`
		Description string         `json:"description"`
		CreatedAt   time.Time      `json:"created_at"`
		UpdatedAt   time.Time      `json:"-"`
		DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	}

	Site struct {
		ID          uuid.UUID `gorm:"primaryKey" json:"id"`
		ClientID    uuid.UUID `gorm:"not null;uniqueIndex:idx_client_site_short" json:"client_id"`
		Name        string    `json:"name"`
		ShortName   string    `gorm:"uniqueIndex:idx_client_site_short" json:"short_name"`
		Description string    `json:"description"`
		Client      Client    `gorm:"foreignKey:ClientID" json:"-"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"-"`
	}

	Image struct {
		ID                uuid.UUID  `gorm:"primaryKey" json:"id"`
		ClientID          uuid.UUID  `gorm:"not null" json:"client_id"`
		SiteID            uuid.UUID  `gorm:"not null" json:"site_id"`
		Role              Role       `json:"role"`
		RepositoryLocator string     `gorm:"index" json:"repository_locator"`
		SourceVolume      string     `json:"source_volume"`
		Client            Client     `gorm:"foreignKey:ClientID" json:"-"`
		Site              Site       `gorm:"foreignKey:SiteID" json:"-"`
		LastSnapshotID    string     `json:"last_snapshot_id"`
		LastBackupAt      *time.Time `json:"last_backup_at"`
		CreatedAt         time.Time  `json:"created_at"`
		UpdatedAt         time.Time  `json:"-"`
	}

	Role string
)

const (
	RoleWorkstation      Role = "workstation"
	RoleServer           Role = "server"
	RoleDomainController Role = "domain-controller"
	RoleSQLServer        Role = "sql-server"
	RoleCustom           Role = "custom"
)

func Roles() []Role {
	return []Role{RoleWorkstation, RoleServer, RoleDomainController, RoleSQLServer, RoleCustom}
}

func ParseRole(value string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Roles() {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown image role: %s", value)
}

func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

func (r *Role) Scan(value interface{}) error {
	v, ok := value.(string)
	if !ok {
		return errors.New("failed to scan Role: type assertion to string failed")
	}

	*r = Role(v)
	return nil
}

func (r Role) String() string {
	return string(r)
}
