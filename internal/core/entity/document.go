package entity

import (
	"context"
	"time"

	"larder/internal/core/apperror"
)

// Document is the base for numbered business transactions such as orders.
// Number is unique per document type; Date is the business date.
type Document struct {
	BaseDocument

	Number string    `db:"number" json:"number"`
	Date   time.Time `db:"date" json:"date"`
}

// NewDocument returns a Document dated now.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	return nil
}
