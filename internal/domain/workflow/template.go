package workflow

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WorkflowTemplate is a tenant-scoped ordered list of operation steps. The
// step list is immutable once a live item workflow references the template;
// only the default/active flags may still be toggled.
type WorkflowTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name      string    `gorm:"column:name;not null;index" json:"name"`
	IsDefault bool      `gorm:"column:is_default;not null;default:false" json:"is_default"`
	Active    bool      `gorm:"column:active;not null;default:true" json:"active"`

	Steps []WorkflowTemplateStep `gorm:"foreignKey:TemplateID;references:ID" json:"steps,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WorkflowTemplate) TableName() string { return "workflow_template" }

// OrderedSteps returns the template steps sorted by sequence.
func (t *WorkflowTemplate) OrderedSteps() []WorkflowTemplateStep {
	out := make([]WorkflowTemplateStep, len(t.Steps))
	copy(out, t.Steps)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Sequence > out[j].Sequence; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// WorkflowTemplateStep is one position in a template. Optional steps may be
// skipped; a contiguous run of Parallel steps may be satisfied in any order.
type WorkflowTemplateStep struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"template_id"`
	Sequence      int            `gorm:"column:sequence;not null" json:"sequence"`
	OperationType OperationType  `gorm:"column:operation_type;not null" json:"operation_type"`
	Optional      bool           `gorm:"column:optional;not null;default:false" json:"optional"`
	Parallel      bool           `gorm:"column:parallel;not null;default:false" json:"parallel"`
	Config        datatypes.JSON `gorm:"column:config" json:"config,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WorkflowTemplateStep) TableName() string { return "workflow_template_step" }

func (t *WorkflowTemplate) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (s *WorkflowTemplateStep) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
