package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/jar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testLedger(t *testing.T, store Store) *Ledger {
	l := New(store, nil)
	l.RetryBackoff = time.Millisecond
	return l
}

func gormStore(t *testing.T) *GormStore {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	store, err := NewGormStore(db)
	require.NoError(t, err)
	return store
}

func eachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("mem", func(t *testing.T) { fn(t, NewMemStore()) })
	t.Run("gorm", func(t *testing.T) { fn(t, gormStore(t)) })
}

func TestGetOrCreate(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		assert := assert.New(t)
		ctx := context.Background()
		l := testLedger(t, store)

		rec, err := l.Get(ctx, "u1")
		assert.NoError(err)
		assert.Nil(rec)

		rec, err = l.GetOrCreate(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(int64(DefaultCoins), rec.Coins)
		assert.Equal(0, rec.Warnings)
		assert.Equal(int64(0), rec.SwearCount)

		rec, err = l.Get(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(int64(DefaultCoins), rec.Coins)

		_, err = l.GetOrCreate(ctx, "")
		assert.True(jar.IsValidationError(err))
	})
}

// brand-new user posts a swear
func TestSwearNewUser(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		assert := assert.New(t)
		ctx := context.Background()
		l := testLedger(t, store)

		res, err := l.ApplySwearPenalty(ctx, "u1", 10)
		require.NoError(t, err)
		assert.Equal(int64(DefaultCoins), res.Before.Coins)
		assert.Equal(int64(90), res.After.Coins)
		assert.Equal(int64(1), res.After.SwearCount)
		assert.Equal(int64(10), res.Deducted)
		assert.False(res.WarningIssued)
		assert.False(res.MuteDue)
	})
}

// user with 5 coins is penalized 10
func TestPenaltyClampsAtFloor(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		assert := assert.New(t)
		ctx := context.Background()
		l := testLedger(t, store)

		_, err := l.Update(ctx, "u1", func(txn *Txn) error {
			txn.Record.Coins = 5
			return nil
		})
		require.NoError(t, err)

		res, err := l.ApplySwearPenalty(ctx, "u1", 10)
		require.NoError(t, err)
		assert.Equal(int64(0), res.After.Coins)
		assert.Equal(int64(5), res.Deducted)
		assert.Equal(1, res.After.Warnings)
		assert.True(res.WarningIssued)
		assert.False(res.MuteDue)
	})
}

// user at two warnings hits the floor again
func TestThirdWarningMutes(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		assert := assert.New(t)
		ctx := context.Background()
		l := testLedger(t, store)

		_, err := l.Update(ctx, "u1", func(txn *Txn) error {
			txn.Record.Coins = 3
			txn.Record.Warnings = 2
			return nil
		})
		require.NoError(t, err)

		res, err := l.ApplySwearPenalty(ctx, "u1", 10)
		require.NoError(t, err)
		assert.True(res.MuteDue)
		assert.Equal(0, res.After.Warnings)
		assert.Equal(2, res.Before.Warnings)
		assert.Equal(int64(0), res.After.Coins)

		res, err = l.IncrementWarnings(ctx, "u1", 2)
		require.NoError(t, err)
		assert.False(res.MuteDue)
		assert.Equal(2, res.After.Warnings)
		res, err = l.IncrementWarnings(ctx, "u1", 1)
		require.NoError(t, err)
		assert.True(res.MuteDue)
		assert.Equal(0, res.After.Warnings)

		_, err = l.IncrementWarnings(ctx, "u1", 0)
		assert.True(jar.IsValidationError(err))
	})
}

func TestPenaltyProperty(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	for _, start := range []int64{0, 1, 9, 10, 11, 99, 100, 1000} {
		for _, amount := range []int64{0, 1, 10, 50, 100, 5000} {
			l := testLedger(t, NewMemStore())
			_, err := l.Update(ctx, "u", func(txn *Txn) error {
				txn.Record.Coins = start
				return nil
			})
			require.NoError(t, err)

			res, err := l.ApplyPenalty(ctx, "u", amount)
			require.NoError(t, err)
			want := start - amount
			if want < 0 {
				want = 0
			}
			assert.Equal(want, res.After.Coins, "start=%d amount=%d", start, amount)
			assert.Equal(want <= 0, res.WarningIssued, "start=%d amount=%d", start, amount)
			assert.Equal(int64(0), res.After.SwearCount)
		}
	}

	l := testLedger(t, NewMemStore())
	_, err := l.ApplyPenalty(ctx, "u", -1)
	assert.True(jar.IsValidationError(err))
}

func TestSwearPassConsumed(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		assert := assert.New(t)
		ctx := context.Background()
		l := testLedger(t, store)

		_, err := l.Update(ctx, "u1", func(txn *Txn) error {
			txn.Record.HasSwearPass = true
			return nil
		})
		require.NoError(t, err)

		res, err := l.ApplySwearPenalty(ctx, "u1", 10)
		require.NoError(t, err)
		assert.True(res.PassConsumed)
		assert.False(res.After.HasSwearPass)
		assert.Equal(int64(DefaultCoins), res.After.Coins)
		assert.Equal(int64(0), res.After.SwearCount)

		res, err = l.ApplySwearPenalty(ctx, "u1", 10)
		require.NoError(t, err)
		assert.False(res.PassConsumed)
		assert.Equal(int64(90), res.After.Coins)

		consumed, err := l.ConsumeSwearPass(ctx, "u1")
		assert.NoError(err)
		assert.False(consumed)
	})
}

func TestClaimDaily(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		assert := assert.New(t)
		ctx := context.Background()
		l := testLedger(t, store)

		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		l.Now = func() time.Time { return now }
		rolls := []int{0, 100}
		l.RandIntN = func(n int) int {
			assert.Equal(DailyMax-DailyMin+1, n)
			r := rolls[0]
			rolls = rolls[1:]
			return r
		}

		res, err := l.ClaimDaily(ctx, "u1")
		require.NoError(t, err)
		assert.True(res.Claimed)
		assert.Equal(int64(DailyMin), res.Reward)
		assert.Equal(int64(DefaultCoins+DailyMin), res.Record.Coins)

		now = now.Add(23*time.Hour + 59*time.Minute)
		res, err = l.ClaimDaily(ctx, "u1")
		require.NoError(t, err)
		assert.False(res.Claimed)
		assert.Equal(time.Minute, res.Remaining)
		assert.Equal(int64(DefaultCoins+DailyMin), res.Record.Coins)

		now = now.Add(time.Minute)
		res, err = l.ClaimDaily(ctx, "u1")
		require.NoError(t, err)
		assert.True(res.Claimed)
		assert.Equal(int64(DailyMax), res.Reward)
		assert.Equal(int64(DefaultCoins+DailyMin+DailyMax), res.Record.Coins)
	})
}

func TestClaimDailyRange(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	l := testLedger(t, NewMemStore())
	for i := 0; i < 200; i++ {
		res, err := l.ClaimDaily(ctx, "u")
		require.NoError(t, err)
		assert.True(res.Claimed)
		assert.GreaterOrEqual(res.Reward, int64(DailyMin))
		assert.LessOrEqual(res.Reward, int64(DailyMax))
		_, err = l.Update(ctx, "u", func(txn *Txn) error {
			txn.Record.LastDailyClaim = nil
			return nil
		})
		require.NoError(t, err)
	}
}

func TestUpdateAbortLeavesRecord(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		assert := assert.New(t)
		ctx := context.Background()
		l := testLedger(t, store)

		_, err := l.GetOrCreate(ctx, "u1")
		require.NoError(t, err)
		_, err = l.Update(ctx, "u1", func(txn *Txn) error {
			txn.Record.Coins = 1
			txn.Record.AdjustInventory(7, 1)
			txn.AppendPurchase(7, "thing", 99)
			return jar.ErrInsufficientFunds
		})
		assert.ErrorIs(err, jar.ErrInsufficientFunds)

		rec, err := l.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(int64(DefaultCoins), rec.Coins)
		assert.Equal(0, rec.Quantity(7))
		purchases, err := l.Purchases(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(purchases)
	})
}

func TestInventoryAndPurchases(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		assert := assert.New(t)
		ctx := context.Background()
		l := testLedger(t, store)

		_, err := l.Update(ctx, "u1", func(txn *Txn) error {
			txn.Record.Coins -= 50
			txn.Record.AdjustInventory(3, 1)
			txn.AppendPurchase(3, "Swear Pass", 50)
			return nil
		})
		require.NoError(t, err)
		_, err = l.Update(ctx, "u1", func(txn *Txn) error {
			txn.Record.AdjustInventory(3, 1)
			txn.Record.AdjustInventory(4, 1)
			txn.Record.AdjustInventory(4, -1)
			txn.AppendPurchase(3, "Swear Pass", 50)
			return nil
		})
		require.NoError(t, err)

		rec, err := l.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(2, rec.Quantity(3))
		assert.NotContains(rec.Inventory, uint(4))
		assert.Equal(int64(50), rec.Coins)

		purchases, err := l.Purchases(ctx, "u1")
		require.NoError(t, err)
		assert.Len(purchases, 2)
		assert.Equal("Swear Pass", purchases[0].ItemName)
		assert.Equal(int64(50), purchases[1].PricePaid)
	})
}

func TestTop(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		assert := assert.New(t)
		ctx := context.Background()
		l := testLedger(t, store)

		for i, u := range []string{"a", "b", "c"} {
			n := i + 1
			_, err := l.Update(ctx, u, func(txn *Txn) error {
				txn.Record.SwearCount = int64(n)
				txn.Record.Coins = int64(1000 - n*100)
				return nil
			})
			require.NoError(t, err)
		}

		top, err := l.Top(ctx, RankSwearCount, 2)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal("c", top[0].UserID)
		assert.Equal("b", top[1].UserID)

		top, err = l.Top(ctx, RankCoins, 10)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal("a", top[0].UserID)

		_, err = l.Top(ctx, Ranking("bogus"), 10)
		assert.True(jar.IsValidationError(err))
	})
}

func TestTransientRetry(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := NewMemStore()
	l := testLedger(t, store)

	store.FailSaves = 2
	rec, err := l.ApplyReward(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(int64(DefaultCoins+5), rec.Coins)

	store.FailSaves = 10
	_, err = l.ApplyReward(ctx, "u1", 5)
	assert.ErrorIs(err, jar.ErrTransient)
	assert.True(errors.Is(err, ErrSimulatedFailure))

	store.FailSaves = 0
	rec, err = l.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(int64(DefaultCoins+5), rec.Coins)
}

func TestConcurrentMutations(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	l := testLedger(t, NewMemStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := l.ApplyReward(ctx, "u1", 2)
			assert.NoError(err)
		}()
		go func() {
			defer wg.Done()
			_, err := l.ApplySwearPenalty(ctx, "u1", 1)
			assert.NoError(err)
		}()
	}
	wg.Wait()

	rec, err := l.Get(ctx, "u1")
	require.NoError(t, err)
	// rewards and penalties never interleave, and the balance never reaches the floor
	assert.Equal(int64(DefaultCoins+50), rec.Coins)
	assert.Equal(int64(50), rec.SwearCount)
	assert.Equal(0, rec.Warnings)
}

func TestWithLockBlocksMutations(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	l := testLedger(t, NewMemStore())

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.WithLock("u1", func() error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		_, _ = l.ApplyReward(ctx, "u1", 1)
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("mutation ran while lock was held")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mutation never completed")
	}
	rec, err := l.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(int64(DefaultCoins+1), rec.Coins)
}
