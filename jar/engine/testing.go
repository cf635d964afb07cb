package engine

import (
	"context"
	"log/slog"

	"github.com/thiccolasscage/sorrynotsorry69/jar/countstore"
	"github.com/thiccolasscage/sorrynotsorry69/jar/enforcement"
	"github.com/thiccolasscage/sorrynotsorry69/jar/ledger"
	"github.com/thiccolasscage/sorrynotsorry69/jar/lexicon"
	"github.com/thiccolasscage/sorrynotsorry69/jar/settings"
	"github.com/thiccolasscage/sorrynotsorry69/jar/sink"
)

// In-memory wiring of an Engine, with its sink and scheduler exposed for inspection.
type TestFixture struct {
	Engine    *Engine
	Recorder  *sink.Recorder
	Scheduler *enforcement.Scheduler
	Counters  *countstore.MemCountStore

	// backing store of the ledger, for injecting failures
	LedgerStore *ledger.MemStore
}

// Fully wired in-memory engine. The lexicons hold the defaults plus "lewd" (nsfw) and "cringe" (gif filter). Callers should Stop the scheduler when done.
func EngineTestFixture() TestFixture {
	ctx := context.Background()
	logger := slog.Default()

	lexStore := lexicon.NewMemStore()
	lex, err := lexicon.New(ctx, lexStore, logger)
	if err != nil {
		panic(err)
	}
	if err := lex.AddNSFW(ctx, "lewd"); err != nil {
		panic(err)
	}
	if err := lex.AddGifFilter(ctx, "cringe"); err != nil {
		panic(err)
	}
	conf, err := settings.New(ctx, settings.NewMemStore(), logger)
	if err != nil {
		panic(err)
	}
	ledgerStore := ledger.NewMemStore()
	l := ledger.New(ledgerStore, logger)
	l.RetryBackoff = 0
	rec := sink.NewRecorder()
	sched := enforcement.NewScheduler(enforcement.NewMemStore(), rec, l, []sink.Notifier{rec}, logger)
	counters := countstore.NewMemCountStore()

	eng := &Engine{
		Logger:    logger,
		Config:    DefaultConfig(),
		Lexicons:  lex,
		Settings:  conf,
		Ledger:    l,
		Scheduler: sched,
		Sink:      rec,
		Counters:  counters,
	}
	return TestFixture{
		Engine:    eng,
		Recorder:  rec,
		Scheduler: sched,
		Counters:  counters,

		LedgerStore: ledgerStore,
	}
}
