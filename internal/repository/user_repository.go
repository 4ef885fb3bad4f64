// Package repository holds the GORM-backed persistence layer for users and
// generator listings.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"genmarket/internal/model"

	"gorm.io/gorm"
)

// UserRepository is the user directory: find-or-create identities keyed by
// WhatsApp ID, activity touches and best-effort counters. Safe to call on
// every inbound message.
type UserRepository interface {
	FindOrCreate(ctx context.Context, whatsappID, displayName string) (*model.User, error)
	TouchActivity(ctx context.Context, user *model.User) error
	IncrementListings(ctx context.Context, user *model.User) error
	IncrementSales(ctx context.Context, user *model.User) error
}

type gormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) FindOrCreate(ctx context.Context, whatsappID, displayName string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("whatsapp_id = ?", whatsappID).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := time.Now().UTC()
		if displayName == "" {
			displayName = model.DefaultDisplayName(whatsappID)
		}
		user = model.User{
			WhatsAppID:       whatsappID,
			DisplayName:      displayName,
			Role:             model.RoleSeller,
			IsActive:         true,
			FirstMessageDate: now,
			LastActivity:     now,
		}
		if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user %s: %w", whatsappID, err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", whatsappID, err)
	}

	// Backfill the display name when we finally learn it
	if displayName != "" && user.DisplayName == "" {
		user.DisplayName = displayName
		if err := r.db.WithContext(ctx).Model(&user).Update("display_name", displayName).Error; err != nil {
			return nil, fmt.Errorf("backfill display name for %s: %w", whatsappID, err)
		}
	}

	return &user, nil
}

func (r *gormUserRepository) TouchActivity(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).Model(user).UpdateColumn("last_activity", now).Error; err != nil {
		return fmt.Errorf("touch activity for %s: %w", user.WhatsAppID, err)
	}
	user.LastActivity = now
	return nil
}

func (r *gormUserRepository) IncrementListings(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Model(user).
		UpdateColumn("total_listings", gorm.Expr("total_listings + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("increment listings for %s: %w", user.WhatsAppID, err)
	}
	user.TotalListings++
	return nil
}

func (r *gormUserRepository) IncrementSales(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Model(user).
		UpdateColumn("successful_sales", gorm.Expr("successful_sales + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("increment sales for %s: %w", user.WhatsAppID, err)
	}
	user.SuccessfulSales++
	return nil
}
