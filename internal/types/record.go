package types

import (
	"encoding/json"
	"github.com/google/uuid"
	"time"
)

type SyncState string

const (
	SyncStateSynced  SyncState = "synced"
	SyncStatePending SyncState = "pending"
	SyncStateFailed  SyncState = "failed"
)

type (
	// BackupRecord is written after every successful backup. The ID is a UUIDv7,
	// so records sort lexicographically in creation order. Records are immutable
	// once created except for their sync bookkeeping fields; history is only
	// ever superseded by newer records.
	BackupRecord struct {
		ID              uuid.UUID  `gorm:"primaryKey" json:"id"`
		ImageID         uuid.UUID  `gorm:"not null" json:"image_id"`
		ClientID        uuid.UUID  `gorm:"not null" json:"client_id"`
		SiteID          uuid.UUID  `gorm:"not null" json:"site_id"`
		Role            Role       `json:"role"`
		SnapshotID      string     `json:"snapshot_id"`
		SizeBytes       uint64     `json:"size_bytes"`
		DurationSeconds float64    `json:"duration_seconds"`
		Warnings        bool       `json:"warnings"`
		SyncState       SyncState  `gorm:"index" json:"sync_state"`
		SyncedAt        *time.Time `json:"synced_at"`
		CreatedAt       time.Time  `json:"created_at"`
	}

	// MetadataRecord is the JSON document mirrored to the bucket under
	// metadata/<id>.json. The schema is additive: readers must tolerate fields
	// they do not know about.
	MetadataRecord struct {
		ID              string    `json:"id"`
		ImageID         string    `json:"image_id"`
		ClientID        string    `json:"client_id"`
		SiteID          string    `json:"site_id"`
		Role            string    `json:"role"`
		SnapshotID      string    `json:"snapshot_id"`
		CreatedAt       time.Time `json:"created_at"`
		SizeBytes       uint64    `json:"size_bytes"`
		DurationSeconds float64   `json:"duration_seconds,omitempty"`
		Warnings        bool      `json:"warnings,omitempty"`
	}
)

func (b *BackupRecord) Metadata() MetadataRecord {
	return MetadataRecord{
		ID:              b.ID.String(),
		ImageID:         b.ImageID.String(),
		ClientID:        b.ClientID.String(),
		SiteID:          b.SiteID.String(),
		Role:            b.Role.String(),
		SnapshotID:      b.SnapshotID,
		CreatedAt:       b.CreatedAt.UTC(),
		SizeBytes:       b.SizeBytes,
		DurationSeconds: b.DurationSeconds,
		Warnings:        b.Warnings,
	}
}

func (m MetadataRecord) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func DecodeMetadataRecord(data []byte) (MetadataRecord, error) {
	var rec MetadataRecord
	err := json.Unmarshal(data, &rec)
	return rec, err
}

func (m MetadataRecord) ObjectKey() string {
	return "metadata/" + m.ID + ".json"
}
