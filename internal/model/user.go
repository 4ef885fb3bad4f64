package model

import (
	"time"
)

// User roles
const (
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User represents a WhatsApp seller or admin identity. Users are keyed by
// their WhatsApp ID and are created on the first inbound message from an
// unseen number. They are never hard-deleted.
type User struct {
	ID uint `json:"id" gorm:"primarykey"`

	// Format: "9198xxxxxxxx (10-15 digits), immutable after creation
	WhatsAppID  string `json:"whatsapp_id" gorm:"column:whatsapp_id;type:varchar(15);uniqueIndex;not null"`
	DisplayName string `json:"display_name" gorm:"type:varchar(100)"`
	Role        string `json:"role" gorm:"type:varchar(20);index;default:seller"`
	IsActive    bool   `json:"is_active" gorm:"default:true"`

	TotalListings   int `json:"total_listings" gorm:"default:0"`
	SuccessfulSales int `json:"successful_sales" gorm:"default:0"`

	FirstMessageDate time.Time `json:"first_message_date"`
	LastActivity     time.Time `json:"last_activity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// DefaultDisplayName derives the fallback display name from the trailing
// four characters of a WhatsApp ID.
func DefaultDisplayName(whatsappID string) string {
	suffix := whatsappID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return "User " + suffix
}
