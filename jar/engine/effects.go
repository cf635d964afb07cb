package engine

import (
	"log/slog"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/policy"
)

type CounterRef struct {
	Name string
	Val  string
}

type CounterDistinctRef struct {
	Name   string
	Bucket string
	Val    string
}

// Record of everything done while processing one message. Filled in by the pipelines as they run, then emitted as a single canonical log line.
type Effects struct {
	Logger *slog.Logger

	Findings []policy.Kind
	// The message was removed (GIF or NSFW violation)
	Deleted bool
	// Reaction glyphs added to the message
	Reactions []string
	// Channel notices sent
	Notices []string
	// Net change to the author's balance
	CoinsDelta     int64
	WarningsIssued int
	// Moderation level used for the swear reaction, if any
	Level        jar.ModerationLevel
	PassConsumed bool
	Muted        bool
	Rewarded     []policy.PositiveMatch
	// Platform calls which failed; the ledger changes preceding them stand
	SinkFailures int
	// Pipelines which failed on persistence or panicked
	PipelineErrors []string

	CounterIncrements         []CounterRef
	CounterDistinctIncrements []CounterDistinctRef
}

// Enqueues a counter increment, persisted after all pipelines have run.
func (e *Effects) Increment(name, val string) {
	e.CounterIncrements = append(e.CounterIncrements, CounterRef{Name: name, Val: val})
}

func (e *Effects) IncrementDistinct(name, bucket, val string) {
	e.CounterDistinctIncrements = append(e.CounterDistinctIncrements, CounterDistinctRef{Name: name, Bucket: bucket, Val: val})
}

func (e *Effects) addReaction(glyph string) {
	e.Reactions = append(e.Reactions, glyph)
}

func (e *Effects) addNotice(text string) {
	e.Notices = append(e.Notices, text)
}

func (e *Effects) CanonicalLogLine() {
	e.Logger.Info("canonical-event-line",
		"findings", e.Findings,
		"deleted", e.Deleted,
		"reactions", e.Reactions,
		"notices", len(e.Notices),
		"coinsDelta", e.CoinsDelta,
		"warnings", e.WarningsIssued,
		"level", e.Level.String(),
		"passConsumed", e.PassConsumed,
		"muted", e.Muted,
		"rewarded", len(e.Rewarded),
		"sinkFailures", e.SinkFailures,
		"pipelineErrors", e.PipelineErrors,
	)
}
