package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is the product master a workflow is tracked against.
type Item struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Code          string    `gorm:"column:code;not null;index" json:"code"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	DrawingNumber string    `gorm:"column:drawing_number" json:"drawing_number"`
	MaterialGrade string    `gorm:"column:material_grade" json:"material_grade"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Item) TableName() string { return "item" }

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
