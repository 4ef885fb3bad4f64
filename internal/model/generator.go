package model

import (
	"time"
)

// Listing statuses. pending_review and failed_parsing are set at creation
// time depending on the parse result; for_sale is reached by admin approval
// (or directly for manually entered listings); sold, rejected and
// failed_parsing are terminal.
const (
	StatusPendingReview = "pending_review"
	StatusForSale       = "for_sale"
	StatusSold          = "sold"
	StatusRejected      = "rejected"
	StatusFailedParsing = "failed_parsing"
)

// AuditTrail records where a listing came from. WhatsAppMessageID is unique
// across all listings: reprocessing the same inbound message cannot create a
// second listing, and SOLD replies are correlated against it.
type AuditTrail struct {
	WhatsAppMessageID   string     `json:"whatsapp_message_id" gorm:"column:whatsapp_message_id;type:varchar(255);uniqueIndex;not null"`
	OriginalMessageText string     `json:"original_message_text" gorm:"type:text"`
	ParsedAt            time.Time  `json:"parsed_at"`
	ParsingErrors       []string   `json:"parsing_errors" gorm:"type:text;serializer:json"`
	ApprovedByID        *uint      `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time `json:"approved_at,omitempty"`
	RejectedReason      string     `json:"rejected_reason,omitempty" gorm:"type:varchar(500)"`
}

// Generator represents one generator for sale
type Generator struct {
	ID uint `json:"id" gorm:"primarykey"`

	Brand        string `json:"brand" gorm:"type:varchar(50);index;not null"`
	Model        string `json:"model" gorm:"type:varchar(100);not null"`
	Price        int64  `json:"price" gorm:"index;not null"`
	HoursRun     int64  `json:"hours_run" gorm:"index;not null"`
	LocationText string `json:"location_text" gorm:"type:varchar(200)"`
	Description  string `json:"description" gorm:"type:varchar(1000)"`

	Images []GeneratorImage `json:"images" gorm:"foreignKey:GeneratorID"`

	Status string `json:"status" gorm:"type:varchar(20);index;not null;default:pending_review"`

	SellerID uint  `json:"seller_id" gorm:"index;not null"`
	Seller   *User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`

	AuditTrail AuditTrail `json:"audit_trail" gorm:"embedded"`

	// Search tags derived from brand/model/location before every write
	Tags []string `json:"tags" gorm:"type:text;serializer:json"`

	Views          int64 `json:"views" gorm:"default:0"`
	WhatsAppClicks int64 `json:"whatsapp_clicks" gorm:"column:whatsapp_clicks;default:0"`

	SoldDate  *time.Time `json:"sold_date,omitempty"`
	SoldPrice *int64     `json:"sold_price,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Generator) TableName() string {
	return "generators"
}

// GeneratorImage is one media attachment of a listing, in upload order
type GeneratorImage struct {
	ID          uint   `json:"-" gorm:"primarykey"`
	GeneratorID uint   `json:"-" gorm:"index;not null"`
	URL         string `json:"url" gorm:"type:text;not null"`
	Filename    string `json:"filename" gorm:"type:varchar(255)"`
	Size        int64  `json:"size"`
	MimeType    string `json:"mimetype" gorm:"type:varchar(100)"`
	Position    int    `json:"-" gorm:"default:0"`
}

func (GeneratorImage) TableName() string {
	return "generator_images"
}
