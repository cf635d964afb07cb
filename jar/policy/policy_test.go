package policy

import (
	"testing"

	"github.com/thiccolasscage/sorrynotsorry69/jar/lexicon"

	"github.com/stretchr/testify/assert"
)

func testSnapshot() *lexicon.Snapshot {
	return lexicon.NewSnapshot(lexicon.Contents{
		Words: map[string][]string{
			lexicon.ListSwear:     {"heck"},
			lexicon.ListNSFW:      {"lewd"},
			lexicon.ListGifFilter: {"cringe"},
		},
		Positive: map[string]int{"thanks": 5, "awesome": 7},
	})
}

func TestClassifySwear(t *testing.T) {
	assert := assert.New(t)
	lex := testSnapshot()

	f := Classify("well DAMN that hurt", lex)
	assert.True(f.SwearFound)
	assert.Equal("damn", f.SwearWord)
	assert.Equal([]Kind{KindSwear}, f.Kinds())

	// whole-word only
	f = Classify("damnation is a word", lex)
	assert.False(f.SwearFound)
	f = Classify("oh heckin no", lex)
	assert.False(f.SwearFound)

	f = Classify("nothing to see here", lex)
	assert.False(f.Any())
	assert.Empty(f.Kinds())
}

func TestClassifyNSFWSubstring(t *testing.T) {
	assert := assert.New(t)
	lex := testSnapshot()

	// substring, not whole-word: the asymmetry with swear matching is intended
	f := Classify("that is so LEWDness", lex)
	assert.True(f.NsfwViolation)
	assert.Equal("lewd", f.NsfwTerm)
	assert.False(f.SwearFound)
}

func TestClassifyGif(t *testing.T) {
	assert := assert.New(t)
	lex := testSnapshot()

	f := Classify("gif: cringe dance", lex)
	assert.True(f.GifViolation)
	assert.Equal("cringe", f.GifTerm)

	f = Classify("https://tenor.com/view/cringe-123", lex)
	assert.True(f.GifViolation)

	// filter term but not a gif share
	f = Classify("that was cringe", lex)
	assert.False(f.GifViolation)

	// gif share without a filter term
	f = Classify("https://giphy.com/cats", lex)
	assert.False(f.GifViolation)

	// no filter terms configured: never blocked
	empty := lexicon.NewSnapshot(lexicon.Contents{})
	f = Classify("gif: cringe", empty)
	assert.False(f.GifViolation)
}

func TestClassifyPositive(t *testing.T) {
	assert := assert.New(t)
	lex := testSnapshot()

	f := Classify("Thanks, that was awesome thanks", lex)
	// "thanks," keeps its punctuation and is not a match
	assert.Equal([]PositiveMatch{{Word: "awesome", Reward: 7}, {Word: "thanks", Reward: 5}}, f.PositiveWords)
}

func TestClassifyIndependentFindings(t *testing.T) {
	assert := assert.New(t)
	lex := testSnapshot()

	f := Classify("gif: damn lewd cringe thanks https://tenor.com/x", lex)
	assert.Equal([]Kind{KindGifViolation, KindNsfwViolation, KindSwear, KindPositiveWords}, f.Kinds())
}

func TestLooksLikeGif(t *testing.T) {
	assert := assert.New(t)

	assert.True(LooksLikeGif("gif: hello"))
	assert.True(LooksLikeGif("  gif:hello"))
	assert.True(LooksLikeGif("see https://media.giphy.com/abc"))
	assert.False(LooksLikeGif("a gif: in the middle"))
	assert.False(LooksLikeGif("plain text"))
}
