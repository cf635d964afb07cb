package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/keyword"
)

const (
	KeyCurrency             = "currency"
	KeyCurrencyEmoji        = "currency_emoji"
	KeyMildReaction         = "mild_reaction"
	KeyModerateReaction     = "moderate_reaction"
	KeySevereReaction       = "severe_reaction"
	KeyMutedReaction        = "muted_reaction"
	KeyPositiveReaction     = "positive_reaction"
	KeyVeryPositiveReaction = "very_positive_reaction"
	KeySwearPassReaction    = "swear_pass_reaction"
)

var Defaults = map[string]string{
	KeyCurrency:             "coins",
	KeyCurrencyEmoji:        "💰",
	KeyMildReaction:         "😠",
	KeyModerateReaction:     "😡",
	KeySevereReaction:       "🤬",
	KeyMutedReaction:        "🔇",
	KeyPositiveReaction:     "😊",
	KeyVeryPositiveReaction: "🌟",
	KeySwearPassReaction:    "🎟️",
}

var levelKeys = map[jar.ModerationLevel]string{
	jar.LevelMild:     KeyMildReaction,
	jar.LevelModerate: KeyModerateReaction,
	jar.LevelSevere:   KeySevereReaction,
	jar.LevelMuted:    KeyMutedReaction,
}

// Immutable view of all settings, with defaults filled in.
type Snapshot struct {
	values map[string]string
}

func NewSnapshot(stored map[string]string) *Snapshot {
	values := make(map[string]string, len(Defaults))
	for k, v := range Defaults {
		values[k] = v
	}
	for k, v := range stored {
		if _, known := Defaults[k]; known && v != "" {
			values[k] = v
		}
	}
	return &Snapshot{values: values}
}

func (s *Snapshot) Get(key string) string {
	return s.values[key]
}

func (s *Snapshot) CurrencyName() string {
	return s.values[KeyCurrency]
}

func (s *Snapshot) CurrencyEmoji() string {
	return s.values[KeyCurrencyEmoji]
}

// Reaction glyph for a moderation level. Unknown levels get the mild glyph.
func (s *Snapshot) Reaction(level jar.ModerationLevel) string {
	key, ok := levelKeys[level]
	if !ok {
		key = KeyMildReaction
	}
	return s.values[key]
}

func (s *Snapshot) PositiveReaction() string {
	return s.values[KeyPositiveReaction]
}

func (s *Snapshot) VeryPositiveReaction() string {
	return s.values[KeyVeryPositiveReaction]
}

func (s *Snapshot) SwearPassReaction() string {
	return s.values[KeySwearPassReaction]
}

// Process-wide settings aggregate. Consumers hold a *Settings and read Current(); updates persist first, then swap the snapshot.
type Settings struct {
	Logger *slog.Logger

	store   Store
	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
}

func New(ctx context.Context, store Store, logger *slog.Logger) (*Settings, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Settings{
		Logger: logger,
		store:  store,
	}
	stored, err := store.LoadAll(ctx)
	if err != nil {
		return nil, jar.Transient("loading settings", err)
	}
	s.current.Store(NewSnapshot(stored))
	return s, nil
}

func (s *Settings) Current() *Snapshot {
	return s.current.Load()
}

func (s *Settings) Set(ctx context.Context, key, value string) error {
	if _, known := Defaults[key]; !known {
		return &jar.ValidationError{Field: "key", Reason: fmt.Sprintf("unknown setting %q", key)}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return &jar.ValidationError{Field: key, Reason: "must not be empty"}
	}
	if key == KeyCurrencyEmoji && !keyword.IsSingleEmoji(value) {
		return &jar.ValidationError{Field: key, Reason: "must be a single emoji"}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.Set(ctx, key, value); err != nil {
		return jar.Transient("saving setting", err)
	}
	next := make(map[string]string, len(s.Current().values))
	for k, v := range s.Current().values {
		next[k] = v
	}
	next[key] = value
	s.current.Store(NewSnapshot(next))
	s.Logger.Info("setting updated", "key", key, "value", value)
	return nil
}

// Sets the reaction glyph for a moderation level (1 through 4).
func (s *Settings) SetReaction(ctx context.Context, level int, glyph string) error {
	key, ok := levelKeys[jar.ModerationLevel(level)]
	if !ok {
		return &jar.ValidationError{Field: "level", Reason: "must be between 1 and 4"}
	}
	return s.Set(ctx, key, glyph)
}
