package models

import (
	"time"

	"github.com/google/uuid"
)

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

// Reference types linking a movement to its cause.
const (
	ReferenceSale       = "sale"
	ReferenceRefund     = "refund"
	ReferenceAdjustment = "adjustment"
)

// StockMovement is an append-only ledger entry of a stock change.
type StockMovement struct {
	Base
	ProductID        uuid.UUID    `gorm:"type:uuid;not null;index"`
	UserID           *uuid.UUID   `gorm:"type:uuid;index"`
	Type             MovementType `gorm:"size:20;not null"`
	Quantity         int          `gorm:"not null"`
	PreviousQuantity int          `gorm:"not null"`
	NewQuantity      int          `gorm:"not null"`
	ReferenceType    string       `gorm:"size:20"`
	ReferenceID      *uuid.UUID   `gorm:"type:uuid;index"`
	Reason           string       `gorm:"size:255"`
}

type StockMovementResponse struct {
	ID               uuid.UUID    `json:"id"`
	ProductID        uuid.UUID    `json:"product_id"`
	UserID           *uuid.UUID   `json:"user_id"`
	Type             MovementType `json:"type"`
	Quantity         int          `json:"quantity"`
	PreviousQuantity int          `json:"previous_quantity"`
	NewQuantity      int          `json:"new_quantity"`
	ReferenceType    string       `json:"reference_type"`
	ReferenceID      *uuid.UUID   `json:"reference_id"`
	Reason           string       `json:"reason"`
	CreatedAt        time.Time    `json:"created_at"`
}

func (m *StockMovement) Response() StockMovementResponse {
	return StockMovementResponse{
		ID:               m.ID,
		ProductID:        m.ProductID,
		UserID:           m.UserID,
		Type:             m.Type,
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		ReferenceType:    m.ReferenceType,
		ReferenceID:      m.ReferenceID,
		Reason:           m.Reason,
		CreatedAt:        m.CreatedAt,
	}
}
