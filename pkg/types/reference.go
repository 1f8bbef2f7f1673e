package types

import (
	"fmt"

	"github.com/google/uuid"
)

// ReferenceKind enumerates the entities a ledger row can point at. Keeping the
// set closed lets switch statements over references be checked exhaustively.
type ReferenceKind string

const (
	ReferenceKindNone    ReferenceKind = ""
	ReferenceKindOrder   ReferenceKind = "order"
	ReferenceKindPayment ReferenceKind = "payment"
)

// Reference is a tagged link from a ledger row to its originating entity.
type Reference struct {
	Kind ReferenceKind `gorm:"column:kind" json:"kind"`
	ID   uuid.UUID     `gorm:"column:id;type:uuid" json:"id"`
}

// OrderRef builds a reference to an order.
func OrderRef(id uuid.UUID) Reference {
	return Reference{Kind: ReferenceKindOrder, ID: id}
}

// PaymentRef builds a reference to a payment.
func PaymentRef(id uuid.UUID) Reference {
	return Reference{Kind: ReferenceKindPayment, ID: id}
}

// IsZero reports whether the reference points at nothing.
func (r Reference) IsZero() bool {
	return r.Kind == ReferenceKindNone && r.ID == uuid.Nil
}

// Validate checks kind/id pairing consistency.
func (r Reference) Validate() error {
	switch r.Kind {
	case ReferenceKindNone:
		if r.ID != uuid.Nil {
			return fmt.Errorf("reference id set without kind")
		}
		return nil
	case ReferenceKindOrder, ReferenceKindPayment:
		if r.ID == uuid.Nil {
			return fmt.Errorf("reference kind %q requires an id", r.Kind)
		}
		return nil
	default:
		return fmt.Errorf("unknown reference kind %q", r.Kind)
	}
}
