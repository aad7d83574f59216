package workflow

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ItemWorkflow tracks one item's (or one batch-of-an-item's) progress through
// a template. Uniqueness is per (tenant, item, identifier) over live,
// non-cancelled rows: the item-level workflow uses an empty identifier,
// batch-level workflows carry their own identifiers, and the two levels
// deliberately coexist. The backing partial unique index cannot be expressed
// as a gorm tag; db.CreateLiveUniqueIndexes builds it during migration.
type ItemWorkflow struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID           uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ItemID             uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	ScopeKind          ScopeKind `gorm:"column:scope_kind;not null" json:"scope_kind"`
	WorkflowIdentifier string    `gorm:"column:workflow_identifier;not null;default:''" json:"workflow_identifier"`
	TemplateID         uuid.UUID `gorm:"type:uuid;not null;index" json:"template_id"`
	Status             Status    `gorm:"column:status;not null;default:'NOT_STARTED'" json:"status"`

	CancelReason string         `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	CancelMeta   datatypes.JSON `gorm:"column:cancel_meta" json:"cancel_meta,omitempty"`

	Steps []ItemWorkflowStep `gorm:"foreignKey:WorkflowID;references:ID" json:"steps,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ItemWorkflow) TableName() string { return "item_workflow" }

// Scope reconstructs the tagged scope variant from the stored columns.
func (w *ItemWorkflow) Scope() Scope {
	if w.ScopeKind == ScopeBatch {
		return BatchScope(w.WorkflowIdentifier)
	}
	return ItemScope()
}

// ItemWorkflowStep is one recorded operation against a workflow, pointing at
// the concrete stage batch that performed it.
type ItemWorkflowStep struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"tenant_id"`
	WorkflowID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"workflow_id"`
	Sequence      int           `gorm:"column:sequence;not null" json:"sequence"`
	OperationType OperationType `gorm:"column:operation_type;not null" json:"operation_type"`
	BatchEntityID uuid.UUID     `gorm:"type:uuid;not null" json:"batch_entity_id"`
	Outcome       StepOutcome   `gorm:"column:outcome;not null" json:"outcome"`
	StartedAt     *time.Time    `gorm:"column:started_at" json:"started_at,omitempty"`
	EndedAt       *time.Time    `gorm:"column:ended_at" json:"ended_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ItemWorkflowStep) TableName() string { return "item_workflow_step" }

func (w *ItemWorkflow) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (s *ItemWorkflowStep) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
