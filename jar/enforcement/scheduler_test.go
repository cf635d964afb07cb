package enforcement

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/ledger"
	"github.com/thiccolasscage/sorrynotsorry69/jar/sink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var subj = jar.Subject{GuildID: "g1", UserID: "u1"}

func newTestScheduler(t *testing.T, store Store) (*Scheduler, *sink.Recorder, chan PunitiveAction) {
	rec := sink.NewRecorder()
	locker := ledger.New(ledger.NewMemStore(), nil)
	s := NewScheduler(store, rec, locker, []sink.Notifier{rec}, nil)
	reverted := make(chan PunitiveAction, 10)
	s.OnReverted = func(a PunitiveAction) { reverted <- a }
	t.Cleanup(s.Stop)
	return s, rec, reverted
}

func waitReverted(t *testing.T, ch chan PunitiveAction) PunitiveAction {
	select {
	case a := <-ch:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("mute was never reverted")
	}
	return PunitiveAction{}
}

func TestMuteAndRevert(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := NewMemStore()
	s, rec, reverted := newTestScheduler(t, store)

	res, err := s.Mute(ctx, MuteRequest{Subject: subj, Duration: 30 * time.Millisecond, Reason: "3 warnings"})
	require.NoError(t, err)
	assert.False(res.Extended)
	assert.NoError(res.RestrictErr)
	assert.Equal(StateMuted, s.State("u1"))
	assert.Len(s.Active(), 1)
	assert.Len(rec.CallsOf("restrict"), 1)
	require.Len(t, rec.Notices(), 1)
	assert.Equal("3 warnings", rec.Notices()[0].Reason)

	persisted, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(persisted, 1)

	a := waitReverted(t, reverted)
	assert.Equal("u1", a.UserID)
	assert.Equal(StateClean, s.State("u1"))
	assert.Len(rec.CallsOf("unrestrict"), 1)
	persisted, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(persisted)
}

func TestReMuteResetsTimer(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s, rec, reverted := newTestScheduler(t, NewMemStore())

	_, err := s.Mute(ctx, MuteRequest{Subject: subj, Duration: 40 * time.Millisecond})
	require.NoError(t, err)
	start := time.Now()
	res, err := s.Mute(ctx, MuteRequest{Subject: subj, Duration: 200 * time.Millisecond})
	require.NoError(t, err)
	assert.True(res.Extended)

	waitReverted(t, reverted)
	assert.GreaterOrEqual(time.Since(start), 200*time.Millisecond)

	// the superseded timer never fires a second reversal
	select {
	case <-reverted:
		t.Fatal("second reversal")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Len(rec.CallsOf("restrict"), 1)
	assert.Len(rec.CallsOf("unrestrict"), 1)
}

func TestRestrictFailureIsNonFatal(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s, rec, reverted := newTestScheduler(t, NewMemStore())
	rec.FailOp("restrict", errors.New("missing permissions"))
	rec.FailOp("unrestrict", errors.New("missing permissions"))

	res, err := s.Mute(ctx, MuteRequest{Subject: subj, Duration: 20 * time.Millisecond})
	require.NoError(t, err)
	assert.Error(res.RestrictErr)
	assert.Equal(StateMuted, s.State("u1"))

	waitReverted(t, reverted)
	assert.Equal(StateClean, s.State("u1"))
}

func TestMuteValidation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s, _, _ := newTestScheduler(t, NewMemStore())

	_, err := s.Mute(ctx, MuteRequest{Subject: jar.Subject{GuildID: "g1"}, Duration: time.Minute})
	assert.True(jar.IsValidationError(err))
	_, err = s.Mute(ctx, MuteRequest{Subject: subj})
	assert.True(jar.IsValidationError(err))
}

func testStartRearms(t *testing.T, store Store) {
	assert := assert.New(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Put(ctx, &PunitiveAction{
		UserID: "expired", GuildID: "g1", Kind: KindMute,
		IssuedAt: now.Add(-20 * time.Minute), ExpiresAt: now.Add(-10 * time.Minute),
	}))
	require.NoError(t, store.Put(ctx, &PunitiveAction{
		UserID: "pending", GuildID: "g1", Kind: KindMute,
		IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	s, rec, reverted := newTestScheduler(t, store)
	require.NoError(t, s.Start(ctx))

	a := waitReverted(t, reverted)
	assert.Equal("expired", a.UserID)
	assert.Equal(StateClean, s.State("expired"))
	assert.Equal(StateMuted, s.State("pending"))
	assert.Len(rec.CallsOf("unrestrict"), 1)
	// restarting never re-applies the restriction
	assert.Empty(rec.CallsOf("restrict"))

	remaining, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal("pending", remaining[0].UserID)
}

func TestStartRearmsMem(t *testing.T) {
	testStartRearms(t, NewMemStore())
}

func TestStartRearmsGorm(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "actions.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	store, err := NewGormStore(db)
	require.NoError(t, err)
	testStartRearms(t, store)
}

func TestStopLeavesActionsPersisted(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := NewMemStore()
	s, rec, reverted := newTestScheduler(t, store)

	_, err := s.Mute(ctx, MuteRequest{Subject: subj, Duration: 30 * time.Millisecond})
	require.NoError(t, err)
	s.Stop()

	select {
	case <-reverted:
		t.Fatal("reverted after stop")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(rec.CallsOf("unrestrict"))
	persisted, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(persisted, 1)

	_, err = s.Mute(ctx, MuteRequest{Subject: subj, Duration: time.Minute})
	assert.Error(err)
}
