package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Forge is the first stage batch: it consumes quantity and pieces from one
// raw-material heat for one item and emits a ProcessedItem.
type Forge struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	HeatID     uuid.UUID `gorm:"type:uuid;not null;index" json:"heat_id"`
	WorkflowID uuid.UUID `gorm:"type:uuid;not null;index" json:"workflow_id"`

	AllocatedQuantityKg float64    `gorm:"column:allocated_quantity_kg;not null" json:"allocated_quantity_kg"`
	AllocatedPieces     int        `gorm:"column:allocated_pieces;not null" json:"allocated_pieces"`
	ForgeDate           *time.Time `gorm:"column:forge_date" json:"forge_date,omitempty"`
	Shift               string     `gorm:"column:shift" json:"shift,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Forge) TableName() string { return "forge" }

func (f *Forge) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
