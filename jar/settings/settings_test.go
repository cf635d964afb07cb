package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/thiccolasscage/sorrynotsorry69/jar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testSettings(t *testing.T, store Store) {
	assert := assert.New(t)
	ctx := context.Background()

	s, err := New(ctx, store, nil)
	require.NoError(t, err)

	snap := s.Current()
	assert.Equal("coins", snap.CurrencyName())
	assert.Equal("💰", snap.CurrencyEmoji())
	assert.Equal("😠", snap.Reaction(jar.LevelMild))
	assert.Equal("🔇", snap.Reaction(jar.LevelMuted))
	assert.Equal("😠", snap.Reaction(jar.ModerationLevel(9)))

	assert.NoError(s.Set(ctx, KeyCurrency, "gold"))
	assert.NoError(s.Set(ctx, KeyCurrencyEmoji, "<:gold:1234>"))
	assert.NoError(s.SetReaction(ctx, 3, "💀"))
	assert.Equal("gold", s.Current().CurrencyName())
	assert.Equal("<:gold:1234>", s.Current().CurrencyEmoji())
	assert.Equal("💀", s.Current().Reaction(jar.LevelSevere))
	// previously handed-out snapshot is unchanged
	assert.Equal("coins", snap.CurrencyName())

	assert.True(jar.IsValidationError(s.SetReaction(ctx, 0, "x")))
	assert.True(jar.IsValidationError(s.SetReaction(ctx, 5, "x")))
	assert.True(jar.IsValidationError(s.Set(ctx, KeyCurrencyEmoji, "not an emoji")))
	assert.True(jar.IsValidationError(s.Set(ctx, "bogus", "x")))
	assert.True(jar.IsValidationError(s.Set(ctx, KeyCurrency, "  ")))

	// a fresh aggregate over the same store sees persisted values
	s2, err := New(ctx, store, nil)
	require.NoError(t, err)
	assert.Equal("gold", s2.Current().CurrencyName())
	assert.Equal("💀", s2.Current().Reaction(jar.LevelSevere))
}

func TestCurrencyEmojiClusters(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s, err := New(ctx, NewMemStore(), nil)
	require.NoError(t, err)

	// multi-codepoint emoji are still a single character on screen
	for _, emoji := range []string{"❤️", "👍🏽", "🇺🇸", "👨‍👩‍👧", "🪙"} {
		assert.NoError(s.Set(ctx, KeyCurrencyEmoji, emoji), emoji)
		assert.Equal(emoji, s.Current().CurrencyEmoji())
	}
	for _, bad := range []string{"ab", "x!", "$", "💰💰"} {
		assert.True(jar.IsValidationError(s.Set(ctx, KeyCurrencyEmoji, bad)), bad)
	}
	assert.Equal("🪙", s.Current().CurrencyEmoji())
}

func TestMemSettings(t *testing.T) {
	testSettings(t, NewMemStore())
}

func TestGormSettings(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "settings.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	store, err := NewGormStore(db)
	require.NoError(t, err)
	testSettings(t, store)
}
