package lexicon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/keyword"
)

// Process-wide holder of the current lexicon Snapshot.
//
// Readers call Current() and get an immutable snapshot; admin mutations write through to the Store, then rebuild and atomically swap in a new snapshot. A reader holding an older snapshot keeps a consistent view of it.
type Lexicons struct {
	Logger *slog.Logger

	store   Store
	current atomic.Pointer[Snapshot]
	// serializes writers, so that write-then-reload pairs don't interleave
	writeMu sync.Mutex
}

// Loads the initial snapshot from the store.
func New(ctx context.Context, store Store, logger *slog.Logger) (*Lexicons, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Lexicons{
		Logger: logger,
		store:  store,
	}
	if err := l.Reload(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Lexicons) Current() *Snapshot {
	return l.current.Load()
}

// Re-reads the store and swaps in a fresh snapshot.
func (l *Lexicons) Reload(ctx context.Context) error {
	c, err := l.store.LoadAll(ctx)
	if err != nil {
		return jar.Transient("loading lexicons", err)
	}
	snap := NewSnapshot(*c)
	l.current.Store(snap)
	l.Logger.Debug("lexicon snapshot loaded", "swear", len(snap.swear), "positive", len(snap.positive), "nsfw", len(snap.nsfw), "gif-filter", len(snap.gifFilter))
	return nil
}

func normalizeWord(word string) (string, error) {
	w := keyword.NormalizeTerm(word)
	if w == "" {
		return "", &jar.ValidationError{Field: "word", Reason: "must not be empty"}
	}
	return w, nil
}

func (l *Lexicons) addWord(ctx context.Context, list, word string) error {
	if !validList(list) {
		return &jar.ValidationError{Field: "list", Reason: fmt.Sprintf("unknown lexicon %q", list)}
	}
	w, err := normalizeWord(word)
	if err != nil {
		return err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.store.AddWord(ctx, list, w); err != nil {
		return jar.Transient("adding lexicon word", err)
	}
	l.Logger.Info("lexicon word added", "list", list, "word", w)
	return l.Reload(ctx)
}

func (l *Lexicons) removeWord(ctx context.Context, list, word string) (bool, error) {
	if !validList(list) {
		return false, &jar.ValidationError{Field: "list", Reason: fmt.Sprintf("unknown lexicon %q", list)}
	}
	w, err := normalizeWord(word)
	if err != nil {
		return false, err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	removed, err := l.store.RemoveWord(ctx, list, w)
	if err != nil {
		return false, jar.Transient("removing lexicon word", err)
	}
	if !removed {
		return false, nil
	}
	l.Logger.Info("lexicon word removed", "list", list, "word", w)
	return true, l.Reload(ctx)
}

func (l *Lexicons) AddSwear(ctx context.Context, word string) error {
	return l.addWord(ctx, ListSwear, word)
}

// NOTE: the built-in default swear words stay active even if removed from the store.
func (l *Lexicons) RemoveSwear(ctx context.Context, word string) (bool, error) {
	return l.removeWord(ctx, ListSwear, word)
}

func (l *Lexicons) AddNSFW(ctx context.Context, term string) error {
	return l.addWord(ctx, ListNSFW, term)
}

func (l *Lexicons) RemoveNSFW(ctx context.Context, term string) (bool, error) {
	return l.removeWord(ctx, ListNSFW, term)
}

func (l *Lexicons) AddGifFilter(ctx context.Context, term string) error {
	return l.addWord(ctx, ListGifFilter, term)
}

func (l *Lexicons) RemoveGifFilter(ctx context.Context, term string) (bool, error) {
	return l.removeWord(ctx, ListGifFilter, term)
}

// Adds (or updates the reward of) a positive word. A reward of zero means DefaultPositiveReward.
func (l *Lexicons) AddPositive(ctx context.Context, word string, reward int) error {
	w, err := normalizeWord(word)
	if err != nil {
		return err
	}
	if reward == 0 {
		reward = DefaultPositiveReward
	}
	if reward < 0 {
		return &jar.ValidationError{Field: "reward", Reason: "must be positive"}
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.store.SetPositive(ctx, w, reward); err != nil {
		return jar.Transient("adding positive word", err)
	}
	l.Logger.Info("positive word added", "word", w, "reward", reward)
	return l.Reload(ctx)
}

func (l *Lexicons) RemovePositive(ctx context.Context, word string) (bool, error) {
	w, err := normalizeWord(word)
	if err != nil {
		return false, err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	removed, err := l.store.RemovePositive(ctx, w)
	if err != nil {
		return false, jar.Transient("removing positive word", err)
	}
	if !removed {
		return false, nil
	}
	l.Logger.Info("positive word removed", "word", w)
	return true, l.Reload(ctx)
}

// Writes every entry of a JSON seed file through to the store, then reloads once.
func (l *Lexicons) SeedFromFileJSON(ctx context.Context, p string) error {
	seed, err := ReadFileJSON(p)
	if err != nil {
		return fmt.Errorf("reading lexicon file: %w", err)
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	lists := map[string][]string{
		ListSwear:     seed.Swear,
		ListNSFW:      seed.NSFW,
		ListGifFilter: seed.GifFilter,
	}
	for list, words := range lists {
		for _, word := range words {
			w := keyword.NormalizeTerm(word)
			if w == "" {
				continue
			}
			if err := l.store.AddWord(ctx, list, w); err != nil {
				return jar.Transient("seeding lexicon", err)
			}
		}
	}
	for word, reward := range seed.Positive {
		w := keyword.NormalizeTerm(word)
		if w == "" || reward <= 0 {
			continue
		}
		if err := l.store.SetPositive(ctx, w, reward); err != nil {
			return jar.Transient("seeding lexicon", err)
		}
	}
	l.Logger.Info("loaded lexicon seed from JSON", "path", p)
	return l.Reload(ctx)
}
