package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/countstore"
	"github.com/thiccolasscage/sorrynotsorry69/jar/enforcement"
	"github.com/thiccolasscage/sorrynotsorry69/jar/ledger"
	"github.com/thiccolasscage/sorrynotsorry69/jar/lexicon"
	"github.com/thiccolasscage/sorrynotsorry69/jar/policy"
	"github.com/thiccolasscage/sorrynotsorry69/jar/settings"
	"github.com/thiccolasscage/sorrynotsorry69/jar/sink"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// Coins deducted per swearing message.
	DefaultSwearPenalty = 10
	// Swear count at which an otherwise clean user is treated as a frequent offender.
	FrequentOffenderCount = 5
	// Users with at most this many swears get the very-positive reaction.
	VeryPositiveMaxSwears = 2
)

type Config struct {
	SwearPenalty int64
}

func DefaultConfig() Config {
	return Config{SwearPenalty: DefaultSwearPenalty}
}

// Issues timed mutes; satisfied by *enforcement.Scheduler.
type Muter interface {
	Mute(ctx context.Context, req enforcement.MuteRequest) (*enforcement.MuteResult, error)
}

// Runs the moderation pipelines for incoming messages and records the outcome.
//
// All fields must be set; EngineTestFixture shows a fully wired in-memory instance.
type Engine struct {
	Logger    *slog.Logger
	Config    Config
	Lexicons  *lexicon.Lexicons
	Settings  *settings.Settings
	Ledger    *ledger.Ledger
	Scheduler Muter
	Sink      sink.Sink
	Counters  countstore.CountStore
}

// Escalation level for a swear, computed from the user's record before the penalty is applied.
func ModerationLevel(rec *ledger.UserRecord) jar.ModerationLevel {
	switch {
	case rec == nil:
		return jar.LevelMild
	case rec.Warnings >= 2:
		return jar.LevelSevere
	case rec.Warnings == 1 || rec.SwearCount >= FrequentOffenderCount:
		return jar.LevelModerate
	default:
		return jar.LevelMild
	}
}

// Processing state for one message, shared by the pipelines.
type messageContext struct {
	evt      *jar.MessageEvent
	subject  jar.Subject
	settings *settings.Snapshot
	findings policy.Findings
	eff      *Effects
}

// Classifies a message and runs the GIF, NSFW, swear, and positive-word pipelines in that order. Each pipeline persists its ledger mutation before making any platform calls. Platform failures are logged and counted in the returned Effects; persistence failures abort the pipeline and are returned (joined) after the remaining pipelines have run.
func (eng *Engine) ProcessMessage(ctx context.Context, evt jar.MessageEvent) (*Effects, error) {
	ctx, span := otel.Tracer("swearjar").Start(ctx, "ProcessMessage")
	defer span.End()

	start := time.Now()
	defer func() {
		eventProcessDuration.Observe(time.Since(start).Seconds())
	}()

	eff := &Effects{
		Logger: eng.Logger.With("user", evt.AuthorID, "channel", evt.ChannelID, "message", evt.MessageID),
	}
	if evt.AuthorBot {
		return eff, nil
	}
	if err := evt.Validate(); err != nil {
		return eff, err
	}
	eventProcessCount.Inc()

	mc := &messageContext{
		evt:      &evt,
		subject:  jar.Subject{GuildID: evt.GuildID, UserID: evt.AuthorID},
		settings: eng.Settings.Current(),
		findings: policy.Classify(evt.Content, eng.Lexicons.Current()),
		eff:      eff,
	}
	eff.Findings = mc.findings.Kinds()
	span.SetAttributes(
		attribute.String("user", evt.AuthorID),
		attribute.Int("findings", len(eff.Findings)),
	)
	if !mc.findings.Any() {
		return eff, nil
	}

	var errs []error
	run := func(name string, enabled bool, fn func(ctx context.Context, mc *messageContext) error) {
		if !enabled {
			return
		}
		if err := eng.runPipeline(ctx, name, mc, fn); err != nil {
			eventErrorCount.WithLabelValues(name).Inc()
			eff.PipelineErrors = append(eff.PipelineErrors, name)
			errs = append(errs, fmt.Errorf("%s pipeline: %w", name, err))
		}
	}
	run("gif", mc.findings.GifViolation, eng.gifPipeline)
	run("nsfw", mc.findings.NsfwViolation, eng.nsfwPipeline)
	run("swear", mc.findings.SwearFound, eng.swearPipeline)
	run("positive", len(mc.findings.PositiveWords) > 0, eng.positivePipeline)

	for _, k := range eff.Findings {
		findingCount.WithLabelValues(string(k)).Inc()
		eff.Increment(countstore.NameOffense, countstore.OffenseKey(string(k), evt.AuthorID))
		eff.IncrementDistinct(countstore.NameOffenders, string(k), evt.AuthorID)
	}
	eff.CanonicalLogLine()
	eng.persistCounters(ctx, eff)

	return eff, errors.Join(errs...)
}

// Similar to an HTTP server, panics from a single pipeline are recovered so that the other pipelines (and the process) keep going.
func (eng *Engine) runPipeline(ctx context.Context, name string, mc *messageContext, fn func(ctx context.Context, mc *messageContext) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			mc.eff.Logger.Error("swearjar pipeline exception", "pipeline", name, "err", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	ctx, span := otel.Tracer("swearjar").Start(ctx, name)
	defer span.End()
	return fn(ctx, mc)
}

func (eng *Engine) persistCounters(ctx context.Context, eff *Effects) {
	for _, ref := range eff.CounterIncrements {
		if err := eng.Counters.Increment(ctx, ref.Name, ref.Val); err != nil {
			eff.Logger.Warn("failed to increment counter", "name", ref.Name, "val", ref.Val, "err", err)
		}
	}
	for _, ref := range eff.CounterDistinctIncrements {
		if err := eng.Counters.IncrementDistinct(ctx, ref.Name, ref.Bucket, ref.Val); err != nil {
			eff.Logger.Warn("failed to increment distinct counter", "name", ref.Name, "bucket", ref.Bucket, "err", err)
		}
	}
}

// Runs a platform side effect; failures are logged and counted, never returned.
func (eng *Engine) act(ctx context.Context, mc *messageContext, op string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		sinkErrorCount.WithLabelValues(op).Inc()
		mc.eff.SinkFailures++
		mc.eff.Logger.Warn("platform action failed", "op", op, "err", err)
	}
}

func (eng *Engine) react(ctx context.Context, mc *messageContext, glyph string) {
	mc.eff.addReaction(glyph)
	if mc.eff.Deleted {
		// nothing left to react to
		return
	}
	eng.act(ctx, mc, "add-reaction", func(ctx context.Context) error {
		return eng.Sink.AddReaction(ctx, mc.evt.ChannelID, mc.evt.MessageID, glyph)
	})
}

func (eng *Engine) notify(ctx context.Context, mc *messageContext, text string) {
	mc.eff.addNotice(text)
	eng.act(ctx, mc, "send-message", func(ctx context.Context) error {
		return eng.Sink.SendMessage(ctx, mc.evt.ChannelID, text)
	})
}

func (eng *Engine) deleteMessage(ctx context.Context, mc *messageContext) {
	if mc.eff.Deleted {
		return
	}
	mc.eff.Deleted = true
	eng.act(ctx, mc, "delete-message", func(ctx context.Context) error {
		return eng.Sink.DeleteMessage(ctx, mc.evt.ChannelID, mc.evt.MessageID)
	})
}

// Issues the warning-threshold mute, after the ledger has already reset the warnings.
func (eng *Engine) mute(ctx context.Context, mc *messageContext, pipeline string) error {
	_, err := eng.Scheduler.Mute(ctx, enforcement.MuteRequest{
		Subject:  mc.subject,
		Duration: enforcement.WarningMuteDuration,
		Reason:   fmt.Sprintf("reached %d warnings (%s)", ledger.MuteThreshold, pipeline),
	})
	if err != nil {
		return err
	}
	muteCount.WithLabelValues(pipeline).Inc()
	mc.eff.Muted = true
	mc.eff.Level = jar.LevelMuted
	eng.react(ctx, mc, mc.settings.Reaction(jar.LevelMuted))
	eng.notify(ctx, mc, fmt.Sprintf("🔇 %s reached %d warnings and has been muted for %d minutes!",
		jar.Mention(mc.evt.AuthorID), ledger.MuteThreshold, int(enforcement.WarningMuteDuration.Minutes())))
	return nil
}

// Shared by the GIF and NSFW pipelines: warn, remove the message, and mute on the third warning.
func (eng *Engine) removalPipeline(ctx context.Context, mc *messageContext, pipeline, removed, reason string) error {
	res, err := eng.Ledger.IncrementWarnings(ctx, mc.evt.AuthorID, 1)
	if err != nil {
		return err
	}
	mc.eff.WarningsIssued++

	eng.deleteMessage(ctx, mc)
	mention := jar.Mention(mc.evt.AuthorID)
	eng.notify(ctx, mc, fmt.Sprintf("%s %s", removed, mention))
	if res.MuteDue {
		return eng.mute(ctx, mc, pipeline)
	}
	eng.notify(ctx, mc, fmt.Sprintf("⚠️ %s received a warning (%d/%d) for %s.", mention, res.After.Warnings, ledger.MuteThreshold, reason))
	return nil
}

func (eng *Engine) gifPipeline(ctx context.Context, mc *messageContext) error {
	mc.eff.Logger.Debug("gif filter matched", "term", mc.findings.GifTerm)
	return eng.removalPipeline(ctx, mc, "gif", "⚠️ Removed a GIF with filtered content from", "posting a filtered GIF")
}

func (eng *Engine) nsfwPipeline(ctx context.Context, mc *messageContext) error {
	mc.eff.Logger.Debug("nsfw term matched", "term", mc.findings.NsfwTerm)
	return eng.removalPipeline(ctx, mc, "nsfw", "🔞 Removed NSFW content from", "posting NSFW content")
}

func (eng *Engine) swearPipeline(ctx context.Context, mc *messageContext) error {
	penalty := eng.Config.SwearPenalty
	res, err := eng.Ledger.ApplySwearPenalty(ctx, mc.evt.AuthorID, penalty)
	if err != nil {
		return err
	}
	mention := jar.Mention(mc.evt.AuthorID)
	cur := mc.settings

	if res.PassConsumed {
		mc.eff.PassConsumed = true
		eng.react(ctx, mc, cur.SwearPassReaction())
		eng.notify(ctx, mc, fmt.Sprintf("%s %s used a Swear Pass! No penalty this time.", cur.SwearPassReaction(), mention))
		return nil
	}

	level := ModerationLevel(res.Before)
	mc.eff.Level = level
	mc.eff.CoinsDelta -= res.Deducted
	coinsPenalized.Add(float64(res.Deducted))
	eng.react(ctx, mc, cur.Reaction(level))

	if res.WarningIssued {
		mc.eff.WarningsIssued++
		warnings := res.After.Warnings
		if res.MuteDue {
			warnings = ledger.MuteThreshold
		}
		eng.notify(ctx, mc, fmt.Sprintf("⚠️ %s is out of %s and received a warning! (%d/%d)", mention, cur.CurrencyName(), warnings, ledger.MuteThreshold))
		if res.MuteDue {
			return eng.mute(ctx, mc, "swear")
		}
		return nil
	}

	// the notice glyph follows the warning count after the penalty
	glyph := cur.Reaction(jar.LevelSevere)
	switch res.After.Warnings {
	case 0:
		glyph = cur.Reaction(jar.LevelMild)
	case 1:
		glyph = cur.Reaction(jar.LevelModerate)
	}
	eng.notify(ctx, mc, fmt.Sprintf("%s %s swore and lost %d %s! %s %d remaining.", glyph, mention, res.Deducted, cur.CurrencyName(), cur.CurrencyEmoji(), res.After.Coins))
	return nil
}

func (eng *Engine) positivePipeline(ctx context.Context, mc *messageContext) error {
	var total int64
	words := make([]string, 0, len(mc.findings.PositiveWords))
	for _, m := range mc.findings.PositiveWords {
		total += int64(m.Reward)
		words = append(words, m.Word)
	}
	rec, err := eng.Ledger.ApplyReward(ctx, mc.evt.AuthorID, total)
	if err != nil {
		return err
	}
	mc.eff.Rewarded = mc.findings.PositiveWords
	mc.eff.CoinsDelta += total
	coinsAwarded.Add(float64(total))

	cur := mc.settings
	glyph := cur.PositiveReaction()
	if rec.SwearCount <= VeryPositiveMaxSwears {
		glyph = cur.VeryPositiveReaction()
	}
	eng.react(ctx, mc, glyph)
	eng.notify(ctx, mc, fmt.Sprintf("%s %s said %s and earned %d %s! %s %d remaining.",
		glyph, jar.Mention(mc.evt.AuthorID), strings.Join(words, ", "), total, cur.CurrencyName(), cur.CurrencyEmoji(), rec.Coins))
	return nil
}
