package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRow struct {
	UserID         string `gorm:"primaryKey"`
	Coins          int64  `gorm:"not null;index"`
	SwearCount     int64  `gorm:"not null;index"`
	Warnings       int    `gorm:"not null"`
	LastDailyClaim *time.Time
	HasSwearPass   bool `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (userRow) TableName() string {
	return "jar_users"
}

type InventoryRow struct {
	UserID   string `gorm:"primaryKey"`
	ItemID   uint   `gorm:"primaryKey"`
	Quantity int    `gorm:"not null"`
}

func (InventoryRow) TableName() string {
	return "jar_inventory"
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&userRow{}, &InventoryRow{}, &PurchaseRecord{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (row *userRow) record() *UserRecord {
	return &UserRecord{
		UserID:         row.UserID,
		Coins:          row.Coins,
		SwearCount:     row.SwearCount,
		Warnings:       row.Warnings,
		LastDailyClaim: row.LastDailyClaim,
		HasSwearPass:   row.HasSwearPass,
		Inventory:      make(map[uint]int),
	}
}

func (s *GormStore) Load(ctx context.Context, userID string) (*UserRecord, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rec := row.record()

	var inv []InventoryRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&inv).Error; err != nil {
		return nil, err
	}
	for _, i := range inv {
		if i.Quantity > 0 {
			rec.Inventory[i.ItemID] = i.Quantity
		}
	}
	return rec, nil
}

func (s *GormStore) Save(ctx context.Context, rec *UserRecord, purchases []PurchaseRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := userRow{
			UserID:         rec.UserID,
			Coins:          rec.Coins,
			SwearCount:     rec.SwearCount,
			Warnings:       rec.Warnings,
			LastDailyClaim: rec.LastDailyClaim,
			HasSwearPass:   rec.HasSwearPass,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"coins", "swear_count", "warnings", "last_daily_claim", "has_swear_pass", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("saving user: %w", err)
		}

		// inventory is small; rewrite it wholesale
		if err := tx.Where("user_id = ?", rec.UserID).Delete(&InventoryRow{}).Error; err != nil {
			return fmt.Errorf("clearing inventory: %w", err)
		}
		if len(rec.Inventory) > 0 {
			rows := make([]InventoryRow, 0, len(rec.Inventory))
			for itemID, q := range rec.Inventory {
				if q > 0 {
					rows = append(rows, InventoryRow{UserID: rec.UserID, ItemID: itemID, Quantity: q})
				}
			}
			if len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return fmt.Errorf("saving inventory: %w", err)
				}
			}
		}

		if len(purchases) > 0 {
			if err := tx.Create(&purchases).Error; err != nil {
				return fmt.Errorf("appending purchases: %w", err)
			}
		}
		return nil
	})
}

func (s *GormStore) Top(ctx context.Context, by Ranking, limit int) ([]UserRecord, error) {
	var order string
	switch by {
	case RankCoins:
		order = "coins DESC, user_id ASC"
	case RankSwearCount:
		order = "swear_count DESC, user_id ASC"
	default:
		return nil, fmt.Errorf("unknown ranking: %s", by)
	}
	q := s.db.WithContext(ctx).Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []userRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]UserRecord, len(rows))
	for i := range rows {
		out[i] = *rows[i].record()
	}
	return out, nil
}

func (s *GormStore) Purchases(ctx context.Context, userID string) ([]PurchaseRecord, error) {
	var out []PurchaseRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
