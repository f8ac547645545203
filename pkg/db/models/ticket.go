package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is one admission. Rows are never deleted; used and transferred only
// move from false to true.
type Ticket struct {
	ID                 uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	EventID            uuid.UUID      `gorm:"column:event_id;type:uuid;not null"`
	StageID            *uuid.UUID     `gorm:"column:stage_id;type:uuid"`
	UserID             uuid.UUID      `gorm:"column:user_id;type:uuid;not null"`
	PurchaseID         *uuid.UUID     `gorm:"column:purchase_id;type:uuid"`
	PackageID          *uuid.UUID     `gorm:"column:package_id;type:uuid"`
	BoxID              *uuid.UUID     `gorm:"column:box_id;type:uuid"`
	TicketType         string         `gorm:"column:ticket_type;not null"`
	Used               bool           `gorm:"column:used;not null;default:false"`
	UsedAt             *time.Time     `gorm:"column:used_at"`
	Transferred        bool           `gorm:"column:transferred;not null;default:false"`
	TransferredAt      *time.Time     `gorm:"column:transferred_at"`
	TransfereeName     *string        `gorm:"column:transferee_name"`
	TransfereeEmail    *string        `gorm:"column:transferee_email"`
	TransfereeDocument *string        `gorm:"column:transferee_document"`
	QRCode             string         `gorm:"column:qr_code;not null;uniqueIndex:tickets_qr_code_key"`
	Event              *Event         `gorm:"foreignKey:EventID"`
	Stage              *Stage         `gorm:"foreignKey:StageID"`
	Package            *TicketPackage `gorm:"foreignKey:PackageID"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
