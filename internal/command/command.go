// Package command maps recognised transcripts to user intents.
//
// Matching is case-insensitive substring containment against fixed phrase
// tables. Tables are checked in order and the first table with a matching
// phrase wins, so help phrases take precedence over scene queries: "help me,
// what do you see" is a request for help.
//
// With [WithPhonetic], transcripts that match no phrase exactly get a second
// pass that accepts words which sound like a phrase (Double Metaphone plus
// Jaro-Winkler). That pass only repairs words that appear in no phrase of any
// table, and a transcript that sounds like phrases of two different intents
// stays unrecognized.
package command

import (
	"log/slog"
	"strings"
)

// Intent is what the user asked for.
type Intent int

const (
	// Unrecognized means no phrase table matched.
	Unrecognized Intent = iota

	// Help asks which commands are available.
	Help

	// SceneQuery asks for a description of what the camera sees.
	SceneQuery
)

// String returns the intent name used in logs and metrics.
func (i Intent) String() string {
	switch i {
	case Help:
		return "help"
	case SceneQuery:
		return "scene-query"
	default:
		return "unrecognized"
	}
}

// Pattern pairs an intent with the phrases that select it.
type Pattern struct {
	// Name is a human-readable label for logging.
	Name string

	// Intent is returned when any phrase matches.
	Intent Intent

	// Phrases are lowercase substrings searched for in the transcript.
	Phrases []string
}

// HelpPhrases select [Help].
var HelpPhrases = []string{"help", "what can i say", "what can you do"}

// SceneQueryPhrases select [SceneQuery]. Apostrophe-less variants are listed
// explicitly because recognisers are inconsistent about emitting them.
var SceneQueryPhrases = []string{
	"what's in front",
	"whats in front",
	"what is in front",
	"detect object",
	"what do you see",
	"what can you see",
}

// Interpreter matches transcripts against an ordered pattern list. It is
// read-only after construction and safe for concurrent use.
type Interpreter struct {
	patterns []Pattern
	phonetic float64

	// vocab holds every word used by any phrase.
	vocab map[string]bool
}

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithPhonetic enables sound-alike matching for transcripts that match no
// phrase exactly. threshold is the minimum Jaro-Winkler similarity in (0, 1];
// a value of 0 disables the fallback.
func WithPhonetic(threshold float64) Option {
	return func(in *Interpreter) { in.phonetic = threshold }
}

// New returns an Interpreter with the built-in help and scene-query tables.
func New(opts ...Option) *Interpreter {
	return build(defaultPatterns(), opts)
}

// NewWithPatterns returns an Interpreter using patterns in the given order.
// Phrases are lowercased on the way in.
func NewWithPatterns(patterns []Pattern, opts ...Option) *Interpreter {
	ps := make([]Pattern, len(patterns))
	for i, p := range patterns {
		phrases := make([]string, len(p.Phrases))
		for j, ph := range p.Phrases {
			phrases[j] = strings.ToLower(ph)
		}
		ps[i] = Pattern{Name: p.Name, Intent: p.Intent, Phrases: phrases}
	}
	return build(ps, opts)
}

func build(patterns []Pattern, opts []Option) *Interpreter {
	in := &Interpreter{patterns: patterns, vocab: make(map[string]bool)}
	for _, p := range patterns {
		for _, phrase := range p.Phrases {
			for _, w := range strings.Fields(stripPunct(phrase)) {
				in.vocab[w] = true
			}
		}
	}
	for _, o := range opts {
		o(in)
	}
	return in
}

// Interpret returns the intent for transcript.
func (in *Interpreter) Interpret(transcript string) Intent {
	text := normalize(transcript)
	if text == "" {
		return Unrecognized
	}
	for _, p := range in.patterns {
		for _, phrase := range p.Phrases {
			if strings.Contains(text, phrase) {
				slog.Debug("command: matched", "pattern", p.Name, "phrase", phrase, "text", text)
				return p.Intent
			}
		}
	}
	if in.phonetic <= 0 {
		return Unrecognized
	}
	return in.interpretBySound(text)
}

// interpretBySound returns the single intent whose phrases text sounds like.
func (in *Interpreter) interpretBySound(text string) Intent {
	matched := Unrecognized
	for _, p := range in.patterns {
		for _, phrase := range p.Phrases {
			if !phoneticMatch(text, phrase, in.phonetic, in.vocab) {
				continue
			}
			if matched != Unrecognized && matched != p.Intent {
				slog.Debug("command: ambiguous sound-alike", "text", text, "intents", []string{matched.String(), p.Intent.String()})
				return Unrecognized
			}
			if matched == Unrecognized {
				slog.Debug("command: matched by sound", "pattern", p.Name, "phrase", phrase, "text", text)
			}
			matched = p.Intent
		}
	}
	return matched
}

// normalize lowercases s and folds typographic apostrophes to ASCII.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}

func defaultPatterns() []Pattern {
	return []Pattern{
		{Name: "help", Intent: Help, Phrases: HelpPhrases},
		{Name: "scene-query", Intent: SceneQuery, Phrases: SceneQueryPhrases},
	}
}
