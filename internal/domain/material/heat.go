package material

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RawMaterialHeat is a distinct metallurgical batch within a raw material lot.
// The total_* columns are immutable once allocations begin; the available_*
// counters only ever change through conditional updates in the heat repo, so
// they can never be driven negative or past the totals by concurrent writers.
type RawMaterialHeat struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RawMaterialID uuid.UUID `gorm:"type:uuid;not null;index" json:"raw_material_id"`
	HeatNumber    string    `gorm:"column:heat_number;not null;index" json:"heat_number"`

	TotalQuantityKg     float64 `gorm:"column:total_quantity_kg;not null" json:"total_quantity_kg"`
	TotalPieces         int     `gorm:"column:total_pieces;not null" json:"total_pieces"`
	AvailableQuantityKg float64 `gorm:"column:available_quantity_kg;not null" json:"available_quantity_kg"`
	AvailablePieces     int     `gorm:"column:available_pieces;not null" json:"available_pieces"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (RawMaterialHeat) TableName() string { return "raw_material_heat" }

func (h *RawMaterialHeat) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
