package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/jar"

	"github.com/puzpuzpuz/xsync/v3"
)

// Per-user economy and moderation state. Every mutation is a single read-modify-write under a per-user lock, so concurrent events for one user never interleave; different users proceed in parallel.
type Ledger struct {
	Logger *slog.Logger
	// Clock, overridable in tests
	Now func() time.Time
	// Returns a uniform integer in [0, n); overridable in tests
	RandIntN func(n int) int
	// Attempts for each store write before the error is surfaced
	MaxAttempts  int
	RetryBackoff time.Duration

	store Store
	// entries are never removed; the table is bounded by the number of distinct users seen
	locks *xsync.MapOf[string, *sync.Mutex]
}

func New(store Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		Logger:       logger,
		Now:          time.Now,
		RandIntN:     rand.Intn,
		MaxAttempts:  3,
		RetryBackoff: 50 * time.Millisecond,
		store:        store,
		locks:        xsync.NewMapOf[string, *sync.Mutex](),
	}
}

func (l *Ledger) lock(userID string) func() {
	mu, _ := l.locks.LoadOrCompute(userID, func() *sync.Mutex { return &sync.Mutex{} })
	mu.Lock()
	return mu.Unlock
}

// Runs fn while holding the user's lock. fn must not call back into the Ledger for the same user.
func (l *Ledger) WithLock(userID string, fn func() error) error {
	unlock := l.lock(userID)
	defer unlock()
	return fn()
}

func validUser(userID string) error {
	if userID == "" {
		return &jar.ValidationError{Field: "user", Reason: "missing user id"}
	}
	return nil
}

// Retries store operations a bounded number of times with linear backoff. Failures surface wrapped as jar.ErrTransient.
func (l *Ledger) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := l.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		storeRetries.WithLabelValues(op).Inc()
		l.Logger.Warn("ledger store failure", "op", op, "attempt", i+1, "err", err)
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return jar.Transient(op, ctx.Err())
		case <-time.After(l.RetryBackoff * time.Duration(i+1)):
		}
	}
	return jar.Transient(op, err)
}

func (l *Ledger) load(ctx context.Context, userID string) (*UserRecord, error) {
	var rec *UserRecord
	err := l.withRetry(ctx, "load", func() error {
		var err error
		rec, err = l.store.Load(ctx, userID)
		return err
	})
	return rec, err
}

// Read-only fetch. Returns (nil, nil) when the user has never been seen.
func (l *Ledger) Get(ctx context.Context, userID string) (*UserRecord, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}
	return l.load(ctx, userID)
}

// Fetches the user's record, creating and persisting a default one if missing.
func (l *Ledger) GetOrCreate(ctx context.Context, userID string) (*UserRecord, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}
	unlock := l.lock(userID)
	defer unlock()

	rec, err := l.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	rec = newRecord(userID)
	if err := l.withRetry(ctx, "save", func() error { return l.store.Save(ctx, rec, nil) }); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Working state for a single Update call.
type Txn struct {
	// Pre-mutation snapshot of the record. Not to be modified.
	Before *UserRecord
	// Mutable copy which is persisted if the mutation function succeeds.
	Record *UserRecord

	purchases []PurchaseRecord
	now       time.Time
}

// Appends a purchase record, written in the same store transaction as the record.
func (t *Txn) AppendPurchase(itemID uint, itemName string, price int64) {
	t.purchases = append(t.purchases, PurchaseRecord{
		UserID:    t.Record.UserID,
		ItemID:    itemID,
		ItemName:  itemName,
		PricePaid: price,
		CreatedAt: t.now,
	})
}

func (t *Txn) Now() time.Time {
	return t.now
}

// Generic transactional mutation. fn runs under the user's lock against a copy of the record (created with defaults if missing). If fn returns an error nothing is persisted and the error is returned unchanged. Returns the committed record.
func (l *Ledger) Update(ctx context.Context, userID string, fn func(txn *Txn) error) (*UserRecord, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}
	unlock := l.lock(userID)
	defer unlock()

	rec, err := l.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = newRecord(userID)
	}
	txn := &Txn{
		Before: rec,
		Record: rec.Clone(),
		now:    l.Now(),
	}
	if err := fn(txn); err != nil {
		return nil, err
	}
	if txn.Record.Coins < 0 {
		return nil, fmt.Errorf("ledger invariant violated: negative balance for %s", userID)
	}
	if err := l.withRetry(ctx, "save", func() error { return l.store.Save(ctx, txn.Record, txn.purchases) }); err != nil {
		return nil, err
	}
	return txn.Record.Clone(), nil
}

// Outcome of a penalty or warning mutation.
type PenaltyResult struct {
	Before *UserRecord
	After  *UserRecord
	// Coins actually removed, after clamping at zero.
	Deducted int64
	// The coin floor was hit and a warning was issued.
	WarningIssued bool
	// Warnings reached the mute threshold and were reset; the caller is responsible for issuing the mute.
	MuteDue bool
	// A swear pass was consumed instead of applying the penalty.
	PassConsumed bool
}

func addWarnings(rec *UserRecord, by int) bool {
	rec.Warnings += by
	if rec.Warnings >= MuteThreshold {
		rec.Warnings = 0
		return true
	}
	return false
}

func deduct(rec *UserRecord, amount int64) (deducted int64, floorHit bool) {
	next := rec.Coins - amount
	if next <= 0 {
		next = 0
		floorHit = true
	}
	deducted = rec.Coins - next
	rec.Coins = next
	return deducted, floorHit
}

func validAmount(amount int64) error {
	if amount < 0 {
		return &jar.ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	return nil
}

// Deducts coins, clamping at zero. Hitting the floor issues a warning in the same mutation.
func (l *Ledger) ApplyPenalty(ctx context.Context, userID string, amount int64) (*PenaltyResult, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	res := &PenaltyResult{}
	after, err := l.Update(ctx, userID, func(txn *Txn) error {
		res.Before = txn.Before
		var floorHit bool
		res.Deducted, floorHit = deduct(txn.Record, amount)
		if floorHit {
			res.WarningIssued = true
			res.MuteDue = addWarnings(txn.Record, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.After = after
	return res, nil
}

// Penalty applied by the swear pipeline. If the user holds a swear pass it is consumed and nothing else changes; otherwise the swear count is incremented and the penalty applied, all in one mutation.
func (l *Ledger) ApplySwearPenalty(ctx context.Context, userID string, amount int64) (*PenaltyResult, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	res := &PenaltyResult{}
	after, err := l.Update(ctx, userID, func(txn *Txn) error {
		res.Before = txn.Before
		if txn.Record.HasSwearPass {
			txn.Record.HasSwearPass = false
			res.PassConsumed = true
			return nil
		}
		txn.Record.SwearCount++
		var floorHit bool
		res.Deducted, floorHit = deduct(txn.Record, amount)
		if floorHit {
			res.WarningIssued = true
			res.MuteDue = addWarnings(txn.Record, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.After = after
	return res, nil
}

func (l *Ledger) ApplyReward(ctx context.Context, userID string, amount int64) (*UserRecord, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	return l.Update(ctx, userID, func(txn *Txn) error {
		txn.Record.Coins += amount
		return nil
	})
}

// Adds warnings. Reaching the threshold resets the counter and reports MuteDue.
func (l *Ledger) IncrementWarnings(ctx context.Context, userID string, by int) (*PenaltyResult, error) {
	if by <= 0 {
		return nil, &jar.ValidationError{Field: "by", Reason: "must be positive"}
	}
	res := &PenaltyResult{}
	after, err := l.Update(ctx, userID, func(txn *Txn) error {
		res.Before = txn.Before
		res.WarningIssued = true
		res.MuteDue = addWarnings(txn.Record, by)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.After = after
	return res, nil
}

// Clears the swear pass flag if set. Returns whether a pass was consumed.
func (l *Ledger) ConsumeSwearPass(ctx context.Context, userID string) (bool, error) {
	consumed := false
	_, err := l.Update(ctx, userID, func(txn *Txn) error {
		consumed = txn.Record.HasSwearPass
		txn.Record.HasSwearPass = false
		return nil
	})
	return consumed, err
}

type DailyResult struct {
	Claimed bool
	Reward  int64
	// Time left until the next claim, when Claimed is false
	Remaining time.Duration
	Record    *UserRecord
}

var errNotEligible = errors.New("daily claim not eligible")

// Claims the daily reward: a uniform random amount in [DailyMin, DailyMax], at most once per DailyCooldown.
func (l *Ledger) ClaimDaily(ctx context.Context, userID string) (*DailyResult, error) {
	res := &DailyResult{}
	after, err := l.Update(ctx, userID, func(txn *Txn) error {
		now := txn.Now()
		if last := txn.Record.LastDailyClaim; last != nil {
			elapsed := now.Sub(*last)
			if elapsed < DailyCooldown {
				res.Remaining = DailyCooldown - elapsed
				res.Record = txn.Before.Clone()
				return errNotEligible
			}
		}
		res.Reward = int64(DailyMin + l.RandIntN(DailyMax-DailyMin+1))
		txn.Record.Coins += res.Reward
		txn.Record.LastDailyClaim = &now
		return nil
	})
	if errors.Is(err, errNotEligible) {
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	res.Claimed = true
	res.Record = after
	return res, nil
}

func (l *Ledger) Top(ctx context.Context, by Ranking, limit int) ([]UserRecord, error) {
	if by != RankCoins && by != RankSwearCount {
		return nil, &jar.ValidationError{Field: "ranking", Reason: string(by)}
	}
	var out []UserRecord
	err := l.withRetry(ctx, "top", func() error {
		var err error
		out, err = l.store.Top(ctx, by, limit)
		return err
	})
	return out, err
}

func (l *Ledger) Purchases(ctx context.Context, userID string) ([]PurchaseRecord, error) {
	var out []PurchaseRecord
	err := l.withRetry(ctx, "purchases", func() error {
		var err error
		out, err = l.store.Purchases(ctx, userID)
		return err
	})
	return out, err
}
