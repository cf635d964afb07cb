package ledger

import (
	"time"
)

const (
	// Starting balance for a freshly created user.
	DefaultCoins = 100
	// Warnings at which a mute is issued and the counter reset.
	MuteThreshold = 3
	DailyCooldown = 24 * time.Hour
	DailyMin      = 50
	DailyMax      = 150
)

// Persistent per-user economy and moderation state.
type UserRecord struct {
	UserID         string
	Coins          int64
	SwearCount     int64
	Warnings       int
	LastDailyClaim *time.Time
	HasSwearPass   bool
	// shop item id to quantity; entries are never zero
	Inventory map[uint]int
}

func newRecord(userID string) *UserRecord {
	return &UserRecord{
		UserID:    userID,
		Coins:     DefaultCoins,
		Inventory: make(map[uint]int),
	}
}

func (r *UserRecord) Clone() *UserRecord {
	out := *r
	if r.LastDailyClaim != nil {
		t := *r.LastDailyClaim
		out.LastDailyClaim = &t
	}
	out.Inventory = make(map[uint]int, len(r.Inventory))
	for k, v := range r.Inventory {
		out.Inventory[k] = v
	}
	return &out
}

func (r *UserRecord) Quantity(itemID uint) int {
	return r.Inventory[itemID]
}

// Adjusts an inventory quantity. Quantities never drop below zero, and a zero quantity removes the entry.
func (r *UserRecord) AdjustInventory(itemID uint, delta int) {
	if r.Inventory == nil {
		r.Inventory = make(map[uint]int)
	}
	q := r.Inventory[itemID] + delta
	if q <= 0 {
		delete(r.Inventory, itemID)
		return
	}
	r.Inventory[itemID] = q
}

// Append-only record of a shop purchase.
type PurchaseRecord struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"index;not null"`
	ItemID    uint   `gorm:"not null"`
	ItemName  string
	PricePaid int64
	CreatedAt time.Time
}

func (PurchaseRecord) TableName() string {
	return "jar_purchases"
}

// Ordering for leaderboard style listings.
type Ranking string

const (
	RankSwearCount Ranking = "swear_count"
	RankCoins      Ranking = "coins"
)
