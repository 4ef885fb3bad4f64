package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"genmarket/internal/model"

	"gorm.io/gorm"
)

// PublicListingQuery filters the public storefront browse
type PublicListingQuery struct {
	Page      int
	Limit     int
	Search    string
	Brand     string
	Location  string
	MinPrice  *int64
	MaxPrice  *int64
	MinHours  *int64
	MaxHours  *int64
	SortBy    string
	SortOrder string
}

// AdminListingQuery filters the admin review queue
type AdminListingQuery struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// GeneratorRepository persists listings and their status transitions
type GeneratorRepository interface {
	// Create derives the tag set and inserts the listing with its images.
	// A duplicate WhatsApp message ID violates the unique index and is
	// returned as an error: that is the idempotency backstop.
	Create(ctx context.Context, gen *model.Generator) error
	FindByID(ctx context.Context, id uint) (*model.Generator, error)
	// FindByMessageID looks a listing up by its audit-trail message ID.
	// Returns (nil, nil) when no listing matches.
	FindByMessageID(ctx context.Context, messageID string) (*model.Generator, error)
	MarkAsSold(ctx context.Context, gen *model.Generator, soldPrice *int64) error
	Approve(ctx context.Context, gen *model.Generator, approvedBy *uint) error
	Reject(ctx context.Context, gen *model.Generator, reason string) error
	ListPublic(ctx context.Context, q PublicListingQuery) ([]model.Generator, int64, error)
	ListAdmin(ctx context.Context, q AdminListingQuery) ([]model.Generator, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	Related(ctx context.Context, gen *model.Generator, limit int) ([]model.Generator, error)
	SellerOther(ctx context.Context, gen *model.Generator, limit int) ([]model.Generator, error)
	IncrementViews(ctx context.Context, id uint) error
	IncrementWhatsAppClicks(ctx context.Context, id uint) error
}

type gormGeneratorRepository struct {
	db *gorm.DB
}

func NewGeneratorRepository(db *gorm.DB) GeneratorRepository {
	return &gormGeneratorRepository{db: db}
}

func (r *gormGeneratorRepository) Create(ctx context.Context, gen *model.Generator) error {
	gen.Tags = model.GenerateTags(gen.Brand, gen.Model, gen.LocationText)
	if err := r.db.WithContext(ctx).Create(gen).Error; err != nil {
		return fmt.Errorf("create listing %s: %w", gen.AuditTrail.WhatsAppMessageID, err)
	}
	return nil
}

func (r *gormGeneratorRepository) FindByID(ctx context.Context, id uint) (*model.Generator, error) {
	var gen model.Generator
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Seller").
		First(&gen, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find listing %d: %w", id, err)
	}
	return &gen, nil
}

func (r *gormGeneratorRepository) FindByMessageID(ctx context.Context, messageID string) (*model.Generator, error) {
	var gen model.Generator
	err := r.db.WithContext(ctx).
		Where("whatsapp_message_id = ?", messageID).
		First(&gen).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find listing by message id %s: %w", messageID, err)
	}
	return &gen, nil
}

func (r *gormGeneratorRepository) MarkAsSold(ctx context.Context, gen *model.Generator, soldPrice *int64) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":    model.StatusSold,
		"sold_date": now,
	}
	if soldPrice != nil {
		updates["sold_price"] = *soldPrice
	}

	if err := r.db.WithContext(ctx).Model(gen).Updates(updates).Error; err != nil {
		return fmt.Errorf("mark listing %d sold: %w", gen.ID, err)
	}
	gen.Status = model.StatusSold
	gen.SoldDate = &now
	if soldPrice != nil {
		gen.SoldPrice = soldPrice
	}
	return nil
}

func (r *gormGeneratorRepository) Approve(ctx context.Context, gen *model.Generator, approvedBy *uint) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":      model.StatusForSale,
		"approved_at": now,
	}
	if approvedBy != nil {
		updates["approved_by_id"] = *approvedBy
	}

	if err := r.db.WithContext(ctx).Model(gen).Updates(updates).Error; err != nil {
		return fmt.Errorf("approve listing %d: %w", gen.ID, err)
	}
	gen.Status = model.StatusForSale
	gen.AuditTrail.ApprovedByID = approvedBy
	gen.AuditTrail.ApprovedAt = &now
	return nil
}

func (r *gormGeneratorRepository) Reject(ctx context.Context, gen *model.Generator, reason string) error {
	if reason == "" {
		reason = "No reason provided"
	}
	updates := map[string]interface{}{
		"status":          model.StatusRejected,
		"rejected_reason": reason,
	}

	if err := r.db.WithContext(ctx).Model(gen).Updates(updates).Error; err != nil {
		return fmt.Errorf("reject listing %d: %w", gen.ID, err)
	}
	gen.Status = model.StatusRejected
	gen.AuditTrail.RejectedReason = reason
	return nil
}

func (r *gormGeneratorRepository) ListPublic(ctx context.Context, q PublicListingQuery) ([]model.Generator, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Generator{}).
		Where("status = ?", model.StatusForSale)

	if q.Search != "" {
		like := "%" + q.Search + "%"
		query = query.Where(
			"brand ILIKE ? OR model ILIKE ? OR description ILIKE ? OR location_text ILIKE ?",
			like, like, like, like)
	}
	if q.Brand != "" {
		query = query.Where("brand ILIKE ?", "%"+q.Brand+"%")
	}
	if q.Location != "" {
		query = query.Where("location_text ILIKE ?", "%"+q.Location+"%")
	}
	if q.MinPrice != nil {
		query = query.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("price <= ?", *q.MaxPrice)
	}
	if q.MinHours != nil {
		query = query.Where("hours_run >= ?", *q.MinHours)
	}
	if q.MaxHours != nil {
		query = query.Where("hours_run <= ?", *q.MaxHours)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count public listings: %w", err)
	}

	query = query.Order(publicSortClause(q.SortBy, q.SortOrder))

	page, limit := normalizePage(q.Page, q.Limit, 12)
	var listings []model.Generator
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Seller").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list public listings: %w", err)
	}

	return listings, total, nil
}

func publicSortClause(sortBy, sortOrder string) string {
	switch sortBy {
	case "price_asc":
		return "price ASC"
	case "price_desc":
		return "price DESC"
	case "hours_asc":
		return "hours_run ASC"
	case "hours_desc":
		return "hours_run DESC"
	case "oldest":
		return "created_at ASC"
	case "newest":
		return "created_at DESC"
	default:
		if sortOrder == "asc" {
			return "created_at ASC"
		}
		return "created_at DESC"
	}
}

func (r *gormGeneratorRepository) ListAdmin(ctx context.Context, q AdminListingQuery) ([]model.Generator, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Generator{})

	if q.Status != "" && q.Status != "all" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		query = query.Where(
			"brand ILIKE ? OR model ILIKE ? OR description ILIKE ? OR location_text ILIKE ?",
			like, like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count admin listings: %w", err)
	}

	page, limit := normalizePage(q.Page, q.Limit, 10)
	var listings []model.Generator
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Seller").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list admin listings: %w", err)
	}

	return listings, total, nil
}

func (r *gormGeneratorRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Generator{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count listings by status: %w", err)
	}

	counts := map[string]int64{
		model.StatusPendingReview: 0,
		model.StatusForSale:       0,
		model.StatusSold:          0,
		model.StatusRejected:      0,
		model.StatusFailedParsing: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *gormGeneratorRepository) Related(ctx context.Context, gen *model.Generator, limit int) ([]model.Generator, error) {
	var listings []model.Generator
	err := r.db.WithContext(ctx).
		Where("id <> ? AND brand = ? AND status = ?", gen.ID, gen.Brand, model.StatusForSale).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("related listings for %d: %w", gen.ID, err)
	}
	return listings, nil
}

func (r *gormGeneratorRepository) SellerOther(ctx context.Context, gen *model.Generator, limit int) ([]model.Generator, error) {
	var listings []model.Generator
	err := r.db.WithContext(ctx).
		Where("id <> ? AND seller_id = ? AND status = ?", gen.ID, gen.SellerID, model.StatusForSale).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("seller listings for %d: %w", gen.ID, err)
	}
	return listings, nil
}

func (r *gormGeneratorRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&model.Generator{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("increment views for %d: %w", id, err)
	}
	return nil
}

func (r *gormGeneratorRepository) IncrementWhatsAppClicks(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&model.Generator{}).
		Where("id = ?", id).
		UpdateColumn("whatsapp_clicks", gorm.Expr("whatsapp_clicks + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("increment whatsapp clicks for %d: %w", id, err)
	}
	return nil
}

func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}
