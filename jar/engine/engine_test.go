package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/countstore"
	"github.com/thiccolasscage/sorrynotsorry69/jar/enforcement"
	"github.com/thiccolasscage/sorrynotsorry69/jar/ledger"
	"github.com/thiccolasscage/sorrynotsorry69/jar/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) TestFixture {
	f := EngineTestFixture()
	t.Cleanup(f.Scheduler.Stop)
	return f
}

var msgSeq int

var errSinkDown = errors.New("sink down")

func message(author, content string) jar.MessageEvent {
	msgSeq++
	return jar.MessageEvent{
		MessageID: fmt.Sprintf("m%d", msgSeq),
		ChannelID: "c1",
		GuildID:   "g1",
		AuthorID:  author,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func setRecord(t *testing.T, f TestFixture, userID string, fn func(r *ledger.UserRecord)) {
	_, err := f.Engine.Ledger.Update(context.Background(), userID, func(txn *ledger.Txn) error {
		fn(txn.Record)
		return nil
	})
	require.NoError(t, err)
}

// brand-new user posts "damn"
func TestNewUserSwears(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "oh damn"))
	require.NoError(t, err)
	assert.Equal([]policy.Kind{policy.KindSwear}, eff.Findings)
	assert.Equal(jar.LevelMild, eff.Level)
	assert.Equal(int64(-10), eff.CoinsDelta)
	assert.Equal([]string{"😠"}, eff.Reactions)

	rec, err := f.Engine.Ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(int64(90), rec.Coins)
	assert.Equal(int64(1), rec.SwearCount)

	reactions := f.Recorder.CallsOf("add-reaction")
	require.Len(t, reactions, 1)
	assert.Equal("😠", reactions[0].Args[2])
	require.Len(t, eff.Notices, 1)
	assert.Contains(eff.Notices[0], "90 remaining")

	c, err := f.Counters.GetCount(ctx, countstore.NameOffense, countstore.OffenseKey(string(policy.KindSwear), "u1"), countstore.PeriodTotal)
	require.NoError(t, err)
	assert.Equal(1, c)
}

// user with 5 coins swears
func TestSwearClampsAndWarns(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)
	setRecord(t, f, "u1", func(r *ledger.UserRecord) { r.Coins = 5 })

	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "damn"))
	require.NoError(t, err)
	assert.Equal(1, eff.WarningsIssued)
	assert.False(eff.Muted)

	rec, err := f.Engine.Ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(int64(0), rec.Coins)
	assert.Equal(1, rec.Warnings)
	assert.Contains(eff.Notices[0], "(1/3)")
}

// user at two warnings swears and hits the floor
func TestThirdWarningMutes(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)
	setRecord(t, f, "u1", func(r *ledger.UserRecord) {
		r.Coins = 5
		r.Warnings = 2
	})

	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "damn"))
	require.NoError(t, err)
	assert.True(eff.Muted)
	assert.Equal(jar.LevelMuted, eff.Level)
	// severe reaction for the swear, then the muted reaction
	assert.Equal([]string{"🤬", "🔇"}, eff.Reactions)

	rec, err := f.Engine.Ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(0, rec.Warnings)

	assert.Equal(enforcement.StateMuted, f.Scheduler.State("u1"))
	active := f.Scheduler.Active()
	require.Len(t, active, 1)
	assert.Equal(600*time.Second, active[0].ExpiresAt.Sub(active[0].IssuedAt))
	assert.Len(f.Recorder.CallsOf("restrict"), 1)
	assert.Len(f.Recorder.Notices(), 1)
}

func TestModerationLevels(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(jar.LevelMild, ModerationLevel(nil))
	assert.Equal(jar.LevelMild, ModerationLevel(&ledger.UserRecord{SwearCount: 4}))
	assert.Equal(jar.LevelModerate, ModerationLevel(&ledger.UserRecord{SwearCount: 5}))
	assert.Equal(jar.LevelModerate, ModerationLevel(&ledger.UserRecord{Warnings: 1}))
	assert.Equal(jar.LevelSevere, ModerationLevel(&ledger.UserRecord{Warnings: 2, SwearCount: 50}))
}

// swear pass armed, then a swear in the same message, then another swear later
func TestSwearPass(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)
	setRecord(t, f, "u1", func(r *ledger.UserRecord) { r.HasSwearPass = true })

	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "damn thanks"))
	require.NoError(t, err)
	assert.True(eff.PassConsumed)
	assert.Equal("🎟️", eff.Reactions[0])

	rec, err := f.Engine.Ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(rec.HasSwearPass)
	assert.Equal(int64(0), rec.SwearCount)
	// the positive pipeline still runs
	assert.Equal(int64(105), rec.Coins)

	eff, err = f.Engine.ProcessMessage(ctx, message("u1", "damn"))
	require.NoError(t, err)
	assert.False(eff.PassConsumed)
	rec, err = f.Engine.Ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(int64(95), rec.Coins)
	assert.Equal(int64(1), rec.SwearCount)
}

func TestPositiveWords(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "Thanks, that was awesome thanks"))
	require.NoError(t, err)
	// "thanks," keeps its punctuation and doesn't match; the second "thanks" does
	require.Len(t, eff.Rewarded, 2)
	assert.Equal(int64(10), eff.CoinsDelta)
	assert.Equal([]string{"🌟"}, eff.Reactions)

	setRecord(t, f, "u2", func(r *ledger.UserRecord) { r.SwearCount = 3 })
	eff, err = f.Engine.ProcessMessage(ctx, message("u2", "great"))
	require.NoError(t, err)
	assert.Equal([]string{"😊"}, eff.Reactions)
	rec, err := f.Engine.Ledger.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(int64(105), rec.Coins)
}

func TestGifViolation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "gif: cringe dance"))
	require.NoError(t, err)
	assert.True(eff.Deleted)
	assert.Equal(1, eff.WarningsIssued)
	assert.Len(f.Recorder.CallsOf("delete-message"), 1)

	// gif without filtered terms, and a filtered term outside a gif, are both fine
	eff, err = f.Engine.ProcessMessage(ctx, message("u1", "gif: happy dance"))
	require.NoError(t, err)
	assert.Empty(eff.Findings)
	eff, err = f.Engine.ProcessMessage(ctx, message("u1", "that was cringe"))
	require.NoError(t, err)
	assert.Empty(eff.Findings)

	rec, err := f.Engine.Ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(1, rec.Warnings)
	assert.Equal(int64(ledger.DefaultCoins), rec.Coins)
}

func TestNsfwMutesOnThirdWarning(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		eff, err := f.Engine.ProcessMessage(ctx, message("u1", "so lewd"))
		require.NoError(t, err)
		assert.False(eff.Muted)
	}
	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "LEWD"))
	require.NoError(t, err)
	assert.True(eff.Muted)
	assert.Equal(enforcement.StateMuted, f.Scheduler.State("u1"))
	assert.Len(f.Recorder.CallsOf("delete-message"), 3)
	// the message is gone, so no reaction is attempted
	assert.Empty(f.Recorder.CallsOf("add-reaction"))

	n, err := f.Counters.GetCountDistinct(ctx, countstore.NameOffenders, string(policy.KindNsfwViolation), countstore.PeriodDay)
	require.NoError(t, err)
	assert.Equal(1, n)
}

func TestAllPipelinesRun(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "gif: damn lewd cringe thanks https://tenor.com/x"))
	require.NoError(t, err)
	assert.Equal([]policy.Kind{policy.KindGifViolation, policy.KindNsfwViolation, policy.KindSwear, policy.KindPositiveWords}, eff.Findings)
	assert.Equal(2, eff.WarningsIssued)
	assert.Len(f.Recorder.CallsOf("delete-message"), 1)

	rec, err := f.Engine.Ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(2, rec.Warnings)
	assert.Equal(int64(95), rec.Coins)
	assert.Equal(int64(1), rec.SwearCount)
}

func TestIgnoresBotsAndInvalid(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)

	evt := message("bot", "damn")
	evt.AuthorBot = true
	eff, err := f.Engine.ProcessMessage(ctx, evt)
	require.NoError(t, err)
	assert.Empty(eff.Findings)
	rec, err := f.Engine.Ledger.Get(ctx, "bot")
	require.NoError(t, err)
	assert.Nil(rec)

	_, err = f.Engine.ProcessMessage(ctx, message("", "damn"))
	assert.True(jar.IsValidationError(err))
	assert.Empty(f.Recorder.Calls())
}

func TestSinkFailuresDoNotRollBack(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.Recorder.FailOp("add-reaction", errSinkDown)
	f.Recorder.FailOp("send-message", errSinkDown)

	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "damn"))
	require.NoError(t, err)
	assert.Equal(2, eff.SinkFailures)
	rec, err := f.Engine.Ledger.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(int64(90), rec.Coins)
}

func TestPersistenceFailureSkipsSideEffects(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.LedgerStore.FailSaves = 100

	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "damn"))
	assert.ErrorIs(err, jar.ErrTransient)
	assert.Equal([]string{"swear"}, eff.PipelineErrors)
	assert.Empty(f.Recorder.Calls())
}

func TestPipelinePanicRecovered(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.Engine.Scheduler = nil
	setRecord(t, f, "u1", func(r *ledger.UserRecord) {
		r.Coins = 0
		r.Warnings = 2
	})

	// muting dereferences the missing scheduler; the positive pipeline still runs
	eff, err := f.Engine.ProcessMessage(ctx, message("u1", "damn thanks"))
	assert.Error(err)
	assert.Equal([]string{"swear"}, eff.PipelineErrors)
	assert.Len(eff.Rewarded, 1)
}

func TestLeaderboard(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.Recorder.Names["g1/u2"] = "bob"

	for _, m := range []jar.MessageEvent{
		message("u1", "damn"),
		message("u2", "damn"),
		message("u2", "sorry"),
		message("u3", "thanks"),
	} {
		_, err := f.Engine.ProcessMessage(ctx, m)
		require.NoError(t, err)
	}

	board, err := f.Engine.Leaderboard(ctx, "g1", 2)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal("bob", board[0].DisplayName)
	assert.Equal(int64(2), board[0].SwearCount)
	assert.Equal(1, board[0].Rank)
	assert.Equal("u1", board[1].UserID)

	rich, err := f.Engine.Richest(ctx, "g1", 0)
	require.NoError(t, err)
	require.Len(t, rich, 3)
	assert.Equal("u3", rich[0].UserID)
	assert.Equal(int64(105), rich[0].Coins)
}
