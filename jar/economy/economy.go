package economy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/enforcement"
	"github.com/thiccolasscage/sorrynotsorry69/jar/keyword"
	"github.com/thiccolasscage/sorrynotsorry69/jar/ledger"
	"github.com/thiccolasscage/sorrynotsorry69/jar/sink"
)

type Config struct {
	// Coins credited on top of the refund when buying a Money Bag.
	MoneyBagBonus int64
}

func DefaultConfig() Config {
	return Config{MoneyBagBonus: 50}
}

// Issues timed mutes; satisfied by *enforcement.Scheduler.
type Muter interface {
	Mute(ctx context.Context, req enforcement.MuteRequest) (*enforcement.MuteResult, error)
}

// Shop catalog, purchases, item use, and admin grants. Balance changes go through the ledger, so each purchase is one atomic read-modify-write of the buyer's record.
type Economy struct {
	Logger *slog.Logger
	Config Config

	catalog Catalog
	ledger  *ledger.Ledger
	sink    sink.Sink
	muter   Muter
}

func New(catalog Catalog, l *ledger.Ledger, s sink.Sink, muter Muter, config Config, logger *slog.Logger) *Economy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Economy{
		Logger:  logger.With("component", "economy"),
		Config:  config,
		catalog: catalog,
		ledger:  l,
		sink:    s,
		muter:   muter,
	}
}

// Returns ErrNotAuthorized unless the caller is an administrator.
func RequireAdmin(isAdmin bool) error {
	if !isAdmin {
		return jar.ErrNotAuthorized
	}
	return nil
}

func (e *Economy) Item(ctx context.Context, id uint) (*ShopItem, error) {
	it, err := e.catalog.Get(ctx, id)
	if err != nil {
		return nil, jar.Transient("loading shop item", err)
	}
	if it == nil {
		return nil, jar.ErrItemNotFound
	}
	return it, nil
}

func (e *Economy) ListItems(ctx context.Context) ([]ShopItem, error) {
	items, err := e.catalog.List(ctx)
	if err != nil {
		return nil, jar.Transient("listing shop items", err)
	}
	return items, nil
}

type BuyRequest struct {
	Subject jar.Subject
	ItemID  uint
}

type BuyResult struct {
	Item   ShopItem
	Record *ledger.UserRecord
	// Bonus coins credited (Money Bag)
	Bonus int64
	// A warning was removed (Get Out of Jail)
	WarningRemoved bool
	// Added to inventory (every item without a built-in purchase effect)
	AddedToInventory bool
	RoleGranted      bool
	// Role grant failure; informational, the purchase stands
	RoleErr error
}

func (e *Economy) Buy(ctx context.Context, req BuyRequest) (*BuyResult, error) {
	item, err := e.Item(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	res := &BuyResult{Item: *item}

	rec, err := e.ledger.Update(ctx, req.Subject.UserID, func(txn *ledger.Txn) error {
		r := txn.Record
		if r.Coins < item.Price {
			return jar.ErrInsufficientFunds
		}
		switch item.Name {
		case ItemMoneyBag:
			r.Coins = r.Coins - item.Price + e.Config.MoneyBagBonus
			res.Bonus = e.Config.MoneyBagBonus
		case ItemGetOutOfJail:
			if r.Warnings <= 0 {
				return jar.ErrNoWarningsToRemove
			}
			r.Warnings--
			r.Coins -= item.Price
			res.WarningRemoved = true
		default:
			r.Coins -= item.Price
			r.AdjustInventory(item.ID, 1)
			txn.AppendPurchase(item.ID, item.Name, item.Price)
			res.AddedToInventory = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Record = rec
	e.Logger.Info("item purchased", "user", req.Subject.UserID, "item", item.Name, "price", item.Price, "coins", rec.Coins)

	// built-in items take effect immediately and never carry a role
	if res.AddedToInventory && item.RoleID != "" && req.Subject.GuildID != "" {
		if err := e.sink.AddRole(ctx, req.Subject.GuildID, req.Subject.UserID, item.RoleID); err != nil {
			e.Logger.Warn("failed to grant purchased role", "user", req.Subject.UserID, "role", item.RoleID, "err", err)
			res.RoleErr = err
		} else {
			res.RoleGranted = true
		}
	}
	return res, nil
}

type UseOutcome string

const (
	UseMuted          UseOutcome = "muted"
	UseSwearPassArmed UseOutcome = "swear-pass-armed"
	// The item is owned but has no use action; nothing was changed.
	UseNotImplemented UseOutcome = "not-implemented"
)

type UseRequest struct {
	Subject jar.Subject
	ItemID  uint
	// Target user id, for items which act on another user
	Target string
}

type UseResult struct {
	Item    ShopItem
	Outcome UseOutcome
	Record  *ledger.UserRecord
	Mute    *enforcement.MuteResult
}

var errNoUseAction = errors.New("item has no use action")

func (e *Economy) Use(ctx context.Context, req UseRequest) (*UseResult, error) {
	item, err := e.Item(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	res := &UseResult{Item: *item}

	rec, err := e.ledger.Update(ctx, req.Subject.UserID, func(txn *ledger.Txn) error {
		r := txn.Record
		if r.Quantity(item.ID) <= 0 {
			return jar.ErrNotOwned
		}
		switch item.Name {
		case ItemMuteToken:
			if req.Target == "" {
				return &jar.ValidationError{Field: "target", Reason: "a user to mute is required"}
			}
			if req.Target == req.Subject.UserID {
				return &jar.ValidationError{Field: "target", Reason: "cannot mute yourself"}
			}
			r.AdjustInventory(item.ID, -1)
			res.Outcome = UseMuted
		case ItemSwearPass:
			r.AdjustInventory(item.ID, -1)
			r.HasSwearPass = true
			res.Outcome = UseSwearPassArmed
		default:
			return errNoUseAction
		}
		return nil
	})
	if errors.Is(err, errNoUseAction) {
		res.Outcome = UseNotImplemented
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	res.Record = rec
	e.Logger.Info("item used", "user", req.Subject.UserID, "item", item.Name, "target", req.Target)

	if res.Outcome == UseMuted {
		// the token is already spent; a failed mute is reported but not refunded
		m, err := e.muter.Mute(ctx, enforcement.MuteRequest{
			Subject:  jar.Subject{GuildID: req.Subject.GuildID, UserID: req.Target},
			Duration: enforcement.TokenMuteDuration,
			Reason:   fmt.Sprintf("Mute Token used by %s", req.Subject.UserID),
		})
		if err != nil {
			return res, err
		}
		res.Mute = m
	}
	return res, nil
}

// Admin coin grant. Creates the target's record if needed.
func (e *Economy) GrantAdmin(ctx context.Context, isAdmin bool, target string, amount int64) (*ledger.UserRecord, error) {
	if err := RequireAdmin(isAdmin); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, &jar.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	rec, err := e.ledger.ApplyReward(ctx, target, amount)
	if err != nil {
		return nil, err
	}
	e.Logger.Info("admin coin grant", "user", target, "amount", amount, "coins", rec.Coins)
	return rec, nil
}

func (e *Economy) AddItem(ctx context.Context, item ShopItem) (*ShopItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.Emoji = strings.TrimSpace(item.Emoji)
	if item.Name == "" {
		return nil, &jar.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !keyword.IsSingleEmoji(item.Emoji) {
		return nil, &jar.ValidationError{Field: "emoji", Reason: "must be a single emoji"}
	}
	if item.Price <= 0 {
		return nil, &jar.ValidationError{Field: "price", Reason: "must be positive"}
	}
	item.ID = 0
	if err := e.catalog.Create(ctx, &item); err != nil {
		return nil, jar.Transient("creating shop item", err)
	}
	e.Logger.Info("shop item added", "id", item.ID, "name", item.Name, "price", item.Price)
	return &item, nil
}

// Fields to change on a shop item. Zero values keep the current value.
type ItemUpdate struct {
	Name        string
	Emoji       string
	Price       int64
	Description string
	RoleID      string
}

func (e *Economy) UpdateItem(ctx context.Context, id uint, upd ItemUpdate) (*ShopItem, error) {
	if upd.Price < 0 {
		return nil, &jar.ValidationError{Field: "price", Reason: "must be positive"}
	}
	if upd.Emoji != "" && !keyword.IsSingleEmoji(strings.TrimSpace(upd.Emoji)) {
		return nil, &jar.ValidationError{Field: "emoji", Reason: "must be a single emoji"}
	}
	item, err := e.Item(ctx, id)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(upd.Name); v != "" {
		item.Name = v
	}
	if v := strings.TrimSpace(upd.Emoji); v != "" {
		item.Emoji = v
	}
	if upd.Price > 0 {
		item.Price = upd.Price
	}
	if upd.Description != "" {
		item.Description = upd.Description
	}
	if upd.RoleID != "" {
		item.RoleID = upd.RoleID
	}
	if err := e.catalog.Save(ctx, item); err != nil {
		return nil, jar.Transient("saving shop item", err)
	}
	e.Logger.Info("shop item updated", "id", item.ID, "name", item.Name, "price", item.Price)
	return item, nil
}

func (e *Economy) RemoveItem(ctx context.Context, id uint) error {
	ok, err := e.catalog.Delete(ctx, id)
	if err != nil {
		return jar.Transient("removing shop item", err)
	}
	if !ok {
		return jar.ErrItemNotFound
	}
	e.Logger.Info("shop item removed", "id", id)
	return nil
}

// Seeds the default catalog if the shop is empty. Returns the number of items created.
func (e *Economy) SeedDefaults(ctx context.Context) (int, error) {
	items, err := e.ListItems(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) > 0 {
		return 0, nil
	}
	for _, it := range DefaultItems {
		if err := e.catalog.Create(ctx, &it); err != nil {
			return 0, jar.Transient("seeding shop items", err)
		}
	}
	e.Logger.Info("seeded default shop catalog", "items", len(DefaultItems))
	return len(DefaultItems), nil
}

type InventoryEntry struct {
	Item     ShopItem
	Quantity int
}

// Owned items joined with their catalog entries. Items since removed from the catalog are skipped.
func (e *Economy) Inventory(ctx context.Context, userID string) ([]InventoryEntry, error) {
	rec, err := e.ledger.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	var out []InventoryEntry
	for id, q := range rec.Inventory {
		it, err := e.catalog.Get(ctx, id)
		if err != nil {
			return nil, jar.Transient("loading shop item", err)
		}
		if it == nil {
			continue
		}
		out = append(out, InventoryEntry{Item: *it, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.ID < out[j].Item.ID })
	return out, nil
}

// Finds a catalog item by exact name.
func (e *Economy) ItemByName(ctx context.Context, name string) (*ShopItem, error) {
	items, err := e.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.Name == name {
			return &it, nil
		}
	}
	return nil, jar.ErrItemNotFound
}
