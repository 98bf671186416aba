// Package entity holds the base types shared by catalogs and documents.
package entity

import (
	"context"
	"time"

	"larder/internal/core/id"
)

// Validatable is implemented by entities that check their own invariants.
// Validation never touches the database.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity is embedded in every persisted entity. Version backs
// optimistic locking; DeletionMark backs soft deletes.
type BaseEntity struct {
	ID           id.ID `db:"id" json:"id"`
	DeletionMark bool  `db:"deletion_mark" json:"deletionMark"`
	Version      int   `db:"version" json:"version"`
}

// NewBaseEntity returns a BaseEntity with a fresh ID at version 1.
func NewBaseEntity() BaseEntity {
	return BaseEntity{ID: id.New(), Version: 1}
}

// Touch bumps the version.
func (b *BaseEntity) Touch() {
	b.Version++
}

// MarkDeleted sets the deletion mark.
func (b *BaseEntity) MarkDeleted() {
	b.DeletionMark = true
}

// Undelete clears the deletion mark.
func (b *BaseEntity) Undelete() {
	b.DeletionMark = false
}

// SetVersion overwrites the version, used by repositories after a write.
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// BaseDocument adds audit timestamps to BaseEntity.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument returns a BaseDocument stamped with the current time.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch bumps the version and refreshes UpdatedAt.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.BaseEntity.Touch()
}

// SetUpdatedAt overwrites UpdatedAt, used by repositories after a write.
func (b *BaseDocument) SetUpdatedAt(t time.Time) {
	b.UpdatedAt = t
}
