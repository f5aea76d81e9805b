package db

import (
	"time"
)

// User holds a student profile keyed by the uid issued by the identity
// provider. The core trusts the uid and stores nothing credential-related.
//
// Fields mirror the schema-less user document of the app: absent fields are
// decoded into zero values and the defaults below are applied at bootstrap,
// not by the database.
type User struct {
	UID                string `gorm:"primaryKey;size:64"`
	Name               string `gorm:"size:128"`
	Major              string `gorm:"size:128"`
	Bio                string `gorm:"size:1024"`
	PhoneNumber        string `gorm:"size:32"`
	Lat                *float64
	Lng                *float64
	Interests          []string `gorm:"serializer:json;type:text"`
	Classes            []string `gorm:"serializer:json;type:text"`
	ProfilePhotoBase64 string   `gorm:"type:mediumtext"`

	NotificationsEnabled bool
	SearchRadiusKm       float64
	LocationVisible      bool

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Profile defaults for a first-seen uid (placeholder row created on first
// successful authentication).
const (
	DefaultSearchRadiusKm = 1.0
)

// InterestEdge is a directed, one-sided record: owner expressed interest in
// counterpart. Lives under the owner's namespace
// (users/{owner}/interests/{counterpart} in the document-store layout).
//
// Composite PK: (OwnerID, CounterpartID) — at most one edge per ordered pair,
// duplicate writes overwrite.
type InterestEdge struct {
	OwnerID       string    `gorm:"primaryKey;size:64"`
	CounterpartID string    `gorm:"primaryKey;size:64;index:idx_interest_counterpart"`
	Liked         bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// MatchEdge is one half of a confirmed mutual link. A match between a and b
// is materialized as two rows, (a,b) and (b,a), written in the same
// transaction and always deleted together.
type MatchEdge struct {
	OwnerID       string    `gorm:"primaryKey;size:64"`
	CounterpartID string    `gorm:"primaryKey;size:64;index:idx_match_counterpart"`
	Matched       bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// ChatMessage is one entry in a room's append-only log.
//
// Seq is the server-side append order and the authoritative tiebreaker for
// messages sharing a timestamp; clients never supply SentAt.
type ChatMessage struct {
	Seq        uint64    `gorm:"primaryKey;autoIncrement"`
	ID         string    `gorm:"uniqueIndex;size:36"`
	RoomID     string    `gorm:"size:130;index:idx_room_sent,priority:1"`
	SenderID   string    `gorm:"size:64"`
	SenderName string    `gorm:"size:128"`
	Text       string    `gorm:"size:4096"`
	SentAt     time.Time `gorm:"autoCreateTime;index:idx_room_sent,priority:2"`
}
