package domain

import (
	"time"

	"github.com/google/uuid"
)

// TagType classifies what a watch subject is.
type TagType string

const (
	TagTypeCompany  TagType = "COMPANY"
	TagTypeIndustry TagType = "INDUSTRY"
)

// Valid reports whether t is one of the known tag types.
func (t TagType) Valid() bool {
	return t == TagTypeCompany || t == TagTypeIndustry
}

// User owns a watchlist of tags.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	CreatedAt time.Time
}

// Tag is a watched company or industry owned by exactly one user.
type Tag struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Type      TagType
	CreatedAt time.Time
}

// Catalyst is a free-text watch-item attached to a tag.
type Catalyst struct {
	ID        uuid.UUID
	TagID     uuid.UUID
	Content   string
	CreatedAt time.Time
}

// TagWork is a tag loaded for a run together with its catalyst contents.
type TagWork struct {
	ID        uuid.UUID
	Name      string
	Catalysts []string
}

// UserWork is a user loaded for a run with tags in storage order.
type UserWork struct {
	ID    uuid.UUID
	Email string
	Name  string
	Tags  []TagWork
}
