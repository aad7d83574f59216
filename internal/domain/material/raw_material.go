package material

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RawMaterial is a purchased lot of stock material for one product item.
type RawMaterial struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ItemID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"item_id"`
	Supplier   string     `gorm:"column:supplier" json:"supplier"`
	Grade      string     `gorm:"column:grade" json:"grade"`
	ReceivedAt *time.Time `gorm:"column:received_at" json:"received_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (RawMaterial) TableName() string { return "raw_material" }

func (m *RawMaterial) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
