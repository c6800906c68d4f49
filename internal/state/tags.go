package state

import (
	"fmt"
	"strings"
)

// Mode selects the marker vocabulary used to resolve a tag expression.
type Mode int

const (
	// ReadMode resolves markers against existing entries.
	ReadMode Mode = iota
	// WriteMode may synthesize new tags.
	WriteMode
)

func (m Mode) String() string {
	if m == WriteMode {
		return "write"
	}
	return "read"
}

// Marker is the character that introduces a special word.
const Marker = "@"

// Special words.
const (
	WordCandidate    = "candidate"
	WordNewCandidate = "new-candidate"
	WordLatest       = "latest"
	WordRandom       = "random"
)

// maxTagAttempts bounds the search for an unused random tag.
const maxTagAttempts = 1000

// vocabularies lists the words each mode accepts, in substitution order.
var vocabularies = map[Mode][]string{
	ReadMode:  {WordCandidate, WordLatest},
	WriteMode: {WordNewCandidate, WordCandidate, WordRandom},
}

type wordResolver func(*EntrySet) (string, error)

// modeResolvers take priority over genericResolvers.
var modeResolvers = map[Mode]map[string]wordResolver{
	ReadMode: {
		WordCandidate: (*EntrySet).latestCandidateTag,
	},
	WriteMode: {
		WordCandidate: (*EntrySet).reuseOrNewCandidateTag,
	},
}

var genericResolvers = map[string]wordResolver{
	WordLatest:       (*EntrySet).latestTag,
	WordRandom:       (*EntrySet).newRandomTag,
	WordNewCandidate: (*EntrySet).newCandidateTag,
}

func lookupResolver(word string, mode Mode) (wordResolver, bool) {
	if fn, ok := modeResolvers[mode][word]; ok {
		return fn, true
	}
	fn, ok := genericResolvers[word]
	return fn, ok
}

// Accepts reports whether mode's vocabulary contains word.
func (m Mode) Accepts(word string) bool {
	for _, w := range vocabularies[m] {
		if w == word {
			return true
		}
	}
	return false
}

// ResolveTag substitutes every marker of mode's vocabulary found in expr.
// Each word is resolved once and replaces all of its occurrences. A marker
// that belongs only to the other mode makes the expression illegal.
func (s *EntrySet) ResolveTag(expr string, mode Mode) (string, error) {
	if err := checkVocabulary(expr, mode); err != nil {
		return "", err
	}

	resolved := expr
	for _, word := range vocabularies[mode] {
		token := Marker + word
		if !strings.Contains(expr, token) {
			continue
		}
		fn, ok := lookupResolver(word, mode)
		if !ok {
			return "", fmt.Errorf("%w: no resolver for %s in %s mode", ErrIllegalTagExpr, token, mode)
		}
		value, err := fn(s)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", expr, err)
		}
		resolved = strings.ReplaceAll(resolved, token, value)
	}
	return resolved, nil
}

func checkVocabulary(expr string, mode Mode) error {
	other := ReadMode
	if mode == ReadMode {
		other = WriteMode
	}
	for _, word := range vocabularies[other] {
		if mode.Accepts(word) {
			continue
		}
		if strings.Contains(expr, Marker+word) {
			return fmt.Errorf("%w: %s%s cannot be used to %s state", ErrIllegalTagExpr, Marker, word, mode)
		}
	}
	return nil
}

func (s *EntrySet) latestCandidateTag() (string, error) {
	if c := s.LatestCandidate(); c != nil {
		return c.tag, nil
	}
	return "", fmt.Errorf("%w: %s%s (no candidate entries): %w", ErrNoPriorState, Marker, WordCandidate, ErrNotFound)
}

func (s *EntrySet) latestTag() (string, error) {
	if l := s.Latest(); l != nil {
		return l.tag, nil
	}
	return "", fmt.Errorf("%w: %s%s (no committed entries): %w", ErrNoPriorState, Marker, WordLatest, ErrNotFound)
}

func (s *EntrySet) reuseOrNewCandidateTag() (string, error) {
	if c := s.LatestCandidate(); c != nil {
		return c.tag, nil
	}
	return s.newCandidateTag()
}

func (s *EntrySet) newCandidateTag() (string, error) {
	return s.unusedTag(CandidatePrefix)
}

func (s *EntrySet) newRandomTag() (string, error) {
	return s.unusedTag("")
}

func (s *EntrySet) unusedTag(prefix string) (string, error) {
	generate := s.generate
	if generate == nil {
		generate = DefaultTagGenerator
	}
	for range maxTagAttempts {
		tag := prefix + generate()
		if s.Get(tag) == nil {
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrTagSpaceExhausted, maxTagAttempts)
}
