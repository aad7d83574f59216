package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Each stage batch consumes a claim against its upstream output and emits its
// own expected/actual/rejected counts, mirroring the ProcessedItem
// conservation contract at its own stage. WorkflowStepID points back at the
// item workflow step the batch fulfilled.

// HeatTreatmentBatch consumes pieces from a ProcessedItem.
type HeatTreatmentBatch struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ProcessedItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"processed_item_id"`
	WorkflowStepID  uuid.UUID `gorm:"type:uuid;not null" json:"workflow_step_id"`
	ClaimID         uuid.UUID `gorm:"type:uuid;not null" json:"claim_id"`

	ConsumedPieces      int    `gorm:"column:consumed_pieces;not null" json:"consumed_pieces"`
	ExpectedPiecesCount int    `gorm:"column:expected_pieces_count;not null" json:"expected_pieces_count"`
	ActualPiecesCount   int    `gorm:"column:actual_pieces_count;not null" json:"actual_pieces_count"`
	RejectedPiecesCount int    `gorm:"column:rejected_pieces_count;not null" json:"rejected_pieces_count"`
	FurnaceNumber       string `gorm:"column:furnace_number" json:"furnace_number,omitempty"`
	CycleNumber         string `gorm:"column:cycle_number" json:"cycle_number,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (HeatTreatmentBatch) TableName() string { return "heat_treatment_batch" }

// MachiningBatch consumes from a heat-treatment batch, or directly from a
// ProcessedItem when the template marks heat treatment optional and it was
// skipped. Exactly one of the two source ids is set.
type MachiningBatch struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	HeatTreatmentBatchID *uuid.UUID `gorm:"type:uuid;index" json:"heat_treatment_batch_id,omitempty"`
	ProcessedItemID      *uuid.UUID `gorm:"type:uuid;index" json:"processed_item_id,omitempty"`
	WorkflowStepID       uuid.UUID  `gorm:"type:uuid;not null" json:"workflow_step_id"`
	ClaimID              uuid.UUID  `gorm:"type:uuid;not null" json:"claim_id"`

	ConsumedPieces      int    `gorm:"column:consumed_pieces;not null" json:"consumed_pieces"`
	ExpectedPiecesCount int    `gorm:"column:expected_pieces_count;not null" json:"expected_pieces_count"`
	ActualPiecesCount   int    `gorm:"column:actual_pieces_count;not null" json:"actual_pieces_count"`
	RejectedPiecesCount int    `gorm:"column:rejected_pieces_count;not null" json:"rejected_pieces_count"`
	MachineNumber       string `gorm:"column:machine_number" json:"machine_number,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MachiningBatch) TableName() string { return "machining_batch" }

// InspectionBatch consumes from a machining batch.
type InspectionBatch struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	MachiningBatchID uuid.UUID `gorm:"type:uuid;not null;index" json:"machining_batch_id"`
	WorkflowStepID   uuid.UUID `gorm:"type:uuid;not null" json:"workflow_step_id"`
	ClaimID          uuid.UUID `gorm:"type:uuid;not null" json:"claim_id"`

	ConsumedPieces      int    `gorm:"column:consumed_pieces;not null" json:"consumed_pieces"`
	ExpectedPiecesCount int    `gorm:"column:expected_pieces_count;not null" json:"expected_pieces_count"`
	ActualPiecesCount   int    `gorm:"column:actual_pieces_count;not null" json:"actual_pieces_count"`
	RejectedPiecesCount int    `gorm:"column:rejected_pieces_count;not null" json:"rejected_pieces_count"`
	Result              string `gorm:"column:result" json:"result,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (InspectionBatch) TableName() string { return "inspection_batch" }

// DispatchBatch consumes from a machining batch (optionally via a specific
// inspection batch) and records the outbound shipment references.
type DispatchBatch struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	MachiningBatchID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"machining_batch_id"`
	InspectionBatchID *uuid.UUID `gorm:"type:uuid;index" json:"inspection_batch_id,omitempty"`
	WorkflowStepID    uuid.UUID  `gorm:"type:uuid;not null" json:"workflow_step_id"`
	ClaimID           uuid.UUID  `gorm:"type:uuid;not null" json:"claim_id"`

	ConsumedPieces int        `gorm:"column:consumed_pieces;not null" json:"consumed_pieces"`
	InvoiceNumber  string     `gorm:"column:invoice_number" json:"invoice_number,omitempty"`
	BuyerID        *uuid.UUID `gorm:"type:uuid;index" json:"buyer_id,omitempty"`
	TransporterID  *uuid.UUID `gorm:"type:uuid" json:"transporter_id,omitempty"`
	DispatchedAt   *time.Time `gorm:"column:dispatched_at" json:"dispatched_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DispatchBatch) TableName() string { return "dispatch_batch" }

func (b *HeatTreatmentBatch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *MachiningBatch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *InspectionBatch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *DispatchBatch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
