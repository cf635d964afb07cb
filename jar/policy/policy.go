// Stateless message classifier.
//
// Swear and positive words are matched whole-word against whitespace tokens. NSFW and GIF-filter terms are matched as substrings of the full lowered message. The two styles intentionally differ: terms like URL fragments only make sense as substrings.
package policy

import (
	"strings"

	"github.com/thiccolasscage/sorrynotsorry69/jar/keyword"
	"github.com/thiccolasscage/sorrynotsorry69/jar/lexicon"
)

type Kind string

const (
	KindGifViolation  Kind = "gif-violation"
	KindNsfwViolation Kind = "nsfw-violation"
	KindSwear         Kind = "swear"
	KindPositiveWords Kind = "positive-words"
)

// Leading token which marks a message as a GIF share.
const GifMarker = "gif:"

// Substrings which mark a message as a GIF share.
var GifHostDomains = []string{"tenor.com", "giphy.com"}

type PositiveMatch struct {
	Word   string
	Reward int
}

// Result of classifying one message. Every finding is independent of the others.
type Findings struct {
	GifViolation bool
	// filter term which matched, if GifViolation
	GifTerm string

	NsfwViolation bool
	NsfwTerm      string

	SwearFound bool
	// first swear word found, in message order
	SwearWord string

	// de-duplicated, in message order
	PositiveWords []PositiveMatch
}

// Ordered list of the kinds of finding present.
func (f *Findings) Kinds() []Kind {
	out := []Kind{}
	if f.GifViolation {
		out = append(out, KindGifViolation)
	}
	if f.NsfwViolation {
		out = append(out, KindNsfwViolation)
	}
	if f.SwearFound {
		out = append(out, KindSwear)
	}
	if len(f.PositiveWords) > 0 {
		out = append(out, KindPositiveWords)
	}
	return out
}

func (f *Findings) Any() bool {
	return len(f.Kinds()) > 0
}

// Checks whether (already normalized) message text looks like a GIF share.
func LooksLikeGif(lowered string) bool {
	if strings.HasPrefix(strings.TrimLeft(lowered, " \t\n"), GifMarker) {
		return true
	}
	for _, d := range GifHostDomains {
		if strings.Contains(lowered, d) {
			return true
		}
	}
	return false
}

func firstSubstring(text string, terms []string) (string, bool) {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return term, true
		}
	}
	return "", false
}

// Classifies message text against a lexicon snapshot. Pure: no I/O, no mutation.
func Classify(text string, lex *lexicon.Snapshot) Findings {
	var f Findings
	lowered := keyword.NormalizeText(text)

	// with no filter terms configured, GIFs are never blocked
	if LooksLikeGif(lowered) {
		if term, ok := firstSubstring(lowered, lex.GifFilterTerms()); ok {
			f.GifViolation = true
			f.GifTerm = term
		}
	}

	if term, ok := firstSubstring(lowered, lex.NSFWTerms()); ok {
		f.NsfwViolation = true
		f.NsfwTerm = term
	}

	seen := make(map[string]bool)
	for _, tok := range keyword.TokenizeText(text) {
		if !f.SwearFound && lex.IsSwear(tok) {
			f.SwearFound = true
			f.SwearWord = tok
		}
		if seen[tok] {
			continue
		}
		if reward, ok := lex.PositiveReward(tok); ok {
			seen[tok] = true
			f.PositiveWords = append(f.PositiveWords, PositiveMatch{Word: tok, Reward: reward})
		}
	}
	return f
}
