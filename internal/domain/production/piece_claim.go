package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourceKind names the upstream output a claim draws pieces from.
type SourceKind string

const (
	SourceProcessedItem      SourceKind = "PROCESSED_ITEM"
	SourceHeatTreatmentBatch SourceKind = "HEAT_TREATMENT_BATCH"
	SourceMachiningBatch     SourceKind = "MACHINING_BATCH"
	SourceInspectionBatch    SourceKind = "INSPECTION_BATCH"
)

func (k SourceKind) Valid() bool {
	switch k {
	case SourceProcessedItem, SourceHeatTreatmentBatch, SourceMachiningBatch, SourceInspectionBatch:
		return true
	}
	return false
}

// SourceRef identifies a claimable upstream output.
type SourceRef struct {
	Kind SourceKind
	ID   uuid.UUID
}

const (
	ClaimStatusClaimed  = "CLAIMED"
	ClaimStatusReleased = "RELEASED"
)

// PieceClaim records pieces taken from an upstream output by a downstream
// batch. Open (CLAIMED) claims are what availability derivations subtract;
// releasing a claim restores the pieces.
type PieceClaim struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	SourceKind SourceKind `gorm:"column:source_kind;not null;index:idx_piece_claim_source" json:"source_kind"`
	SourceID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_piece_claim_source" json:"source_id"`

	ConsumerKind string    `gorm:"column:consumer_kind;not null" json:"consumer_kind"`
	ConsumerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"consumer_id"`

	Pieces int    `gorm:"column:pieces;not null" json:"pieces"`
	Status string `gorm:"column:status;not null;default:'CLAIMED'" json:"status"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PieceClaim) TableName() string { return "piece_claim" }

func (c *PieceClaim) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
