package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProcessedItem is the output record of a forge. Overproduction is allowed
// (actual may exceed expected) but rejected never exceeds actual. There is no
// stored "available" counter: availability is always derived as
// actual - rejected - sum(open downstream claims).
type ProcessedItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ForgeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"forge_id"`
	ItemID   uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`

	ExpectedForgePiecesCount int     `gorm:"column:expected_forge_pieces_count;not null" json:"expected_forge_pieces_count"`
	ActualForgePiecesCount   int     `gorm:"column:actual_forge_pieces_count;not null" json:"actual_forge_pieces_count"`
	RejectedForgePiecesCount int     `gorm:"column:rejected_forge_pieces_count;not null" json:"rejected_forge_pieces_count"`
	OtherForgeRejectionsKg   float64 `gorm:"column:other_forge_rejections_kg;not null;default:0" json:"other_forge_rejections_kg"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProcessedItem) TableName() string { return "processed_item" }

// GoodPieces is the produced count net of forge rejections.
func (p *ProcessedItem) GoodPieces() int {
	return p.ActualForgePiecesCount - p.RejectedForgePiecesCount
}

func (p *ProcessedItem) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
