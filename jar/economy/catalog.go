package economy

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Names of the items with built-in behavior.
const (
	ItemVIPStatus    = "VIP Status"
	ItemMuteToken    = "Mute Token"
	ItemGetOutOfJail = "Get Out of Jail"
	ItemSwearPass    = "Swear Pass"
	ItemMoneyBag     = "Money Bag"
)

type ShopItem struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Emoji       string `gorm:"not null"`
	Price       int64  `gorm:"not null;index"`
	Description string
	// Optional platform role granted on purchase
	RoleID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ShopItem) TableName() string {
	return "jar_shop_items"
}

// Seeded into an empty catalog.
var DefaultItems = []ShopItem{
	{Name: ItemVIPStatus, Emoji: "👑", Price: 500, Description: "Special VIP role with unique color"},
	{Name: ItemMuteToken, Emoji: "🔇", Price: 300, Description: "Mute someone for 5 minutes"},
	{Name: ItemGetOutOfJail, Emoji: "🔑", Price: 200, Description: "Remove a warning from your record"},
	{Name: ItemSwearPass, Emoji: "🎟️", Price: 150, Description: "One-time pass to swear without penalty"},
	{Name: ItemMoneyBag, Emoji: "💰", Price: 100, Description: "Get 50 bonus coins"},
}

// Persistence for the shop catalog.
type Catalog interface {
	// All items, cheapest first.
	List(ctx context.Context) ([]ShopItem, error)
	// Returns (nil, nil) when no such item exists.
	Get(ctx context.Context, id uint) (*ShopItem, error)
	// Inserts a new item, assigning its ID.
	Create(ctx context.Context, item *ShopItem) error
	Save(ctx context.Context, item *ShopItem) error
	Delete(ctx context.Context, id uint) (bool, error)
}

func sortItems(items []ShopItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Price != items[j].Price {
			return items[i].Price < items[j].Price
		}
		return items[i].ID < items[j].ID
	})
}

type MemCatalog struct {
	mu     sync.Mutex
	items  map[uint]ShopItem
	nextID uint
}

func NewMemCatalog() *MemCatalog {
	return &MemCatalog{items: make(map[uint]ShopItem)}
}

func (c *MemCatalog) List(ctx context.Context) ([]ShopItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ShopItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sortItems(out)
	return out, nil
}

func (c *MemCatalog) Get(ctx context.Context, id uint) (*ShopItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (c *MemCatalog) Create(ctx context.Context, item *ShopItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	item.ID = c.nextID
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	c.items[item.ID] = *item
	return nil
}

func (c *MemCatalog) Save(ctx context.Context, item *ShopItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item.UpdatedAt = time.Now()
	c.items[item.ID] = *item
	return nil
}

func (c *MemCatalog) Delete(ctx context.Context, id uint) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[id]
	delete(c.items, id)
	return ok, nil
}

type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) (*GormCatalog, error) {
	if err := db.AutoMigrate(&ShopItem{}); err != nil {
		return nil, err
	}
	return &GormCatalog{db: db}, nil
}

func (c *GormCatalog) List(ctx context.Context) ([]ShopItem, error) {
	var out []ShopItem
	if err := c.db.WithContext(ctx).Order("price ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GormCatalog) Get(ctx context.Context, id uint) (*ShopItem, error) {
	var it ShopItem
	if err := c.db.WithContext(ctx).Where("id = ?", id).Take(&it).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

func (c *GormCatalog) Create(ctx context.Context, item *ShopItem) error {
	return c.db.WithContext(ctx).Create(item).Error
}

func (c *GormCatalog) Save(ctx context.Context, item *ShopItem) error {
	return c.db.WithContext(ctx).Save(item).Error
}

func (c *GormCatalog) Delete(ctx context.Context, id uint) (bool, error) {
	res := c.db.WithContext(ctx).Delete(&ShopItem{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
