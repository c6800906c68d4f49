package state

import (
	"fmt"
	"sort"

	petname "github.com/dustinkirkland/golang-petname"
)

// EntrySet holds every entry of one release, newest first.
type EntrySet struct {
	entries  []*Entry
	release  string
	generate func() string
}

// Option configures an EntrySet.
type Option func(*EntrySet)

// WithRelease records the release the set belongs to.
func WithRelease(name string) Option {
	return func(s *EntrySet) {
		s.release = name
	}
}

// WithTagGenerator replaces the random tag source.
func WithTagGenerator(fn func() string) Option {
	return func(s *EntrySet) {
		s.generate = fn
	}
}

// DefaultTagGenerator returns a two-word adjective-noun identifier.
func DefaultTagGenerator() string {
	return petname.Generate(2, "-")
}

// NewEntrySet adopts entries and sorts them newest first.
func NewEntrySet(entries []*Entry, opts ...Option) *EntrySet {
	s := &EntrySet{generate: DefaultTagGenerator}
	for _, opt := range opts {
		opt(s)
	}
	for _, entry := range entries {
		s.adopt(entry)
	}
	s.Sort()
	return s
}

func (s *EntrySet) adopt(entry *Entry) {
	entry.set = s
	s.entries = append(s.entries, entry)
}

// Release returns the release name the set was built for.
func (s *EntrySet) Release() string { return s.release }

// Len returns the number of entries.
func (s *EntrySet) Len() int { return len(s.entries) }

// Entries returns the entries, newest first.
func (s *EntrySet) Entries() []*Entry {
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Tags returns every literal tag in set order.
func (s *EntrySet) Tags() []string {
	tags := make([]string, len(s.entries))
	for i, e := range s.entries {
		tags[i] = e.tag
	}
	return tags
}

// Sort orders timed entries by CreatedAt, newest first, within the slots
// timed entries occupy. Entries without a timestamp keep their position.
func (s *EntrySet) Sort() {
	var slots []int
	var timed []*Entry
	for i, e := range s.entries {
		if e.CreatedAt != nil {
			slots = append(slots, i)
			timed = append(timed, e)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].CreatedAt.After(*timed[j].CreatedAt)
	})
	for i, slot := range slots {
		s.entries[slot] = timed[i]
	}
}

// Committed returns the non-candidate entries, newest first.
func (s *EntrySet) Committed() []*Entry {
	return s.filter(func(e *Entry) bool { return e.Committed() })
}

// Candidates returns the candidate entries, newest first.
func (s *EntrySet) Candidates() []*Entry {
	return s.filter(func(e *Entry) bool { return e.Candidate() })
}

// Latest returns the newest committed entry, or nil.
func (s *EntrySet) Latest() *Entry {
	return first(s.Committed())
}

// LatestCandidate returns the newest candidate entry, or nil.
func (s *EntrySet) LatestCandidate() *Entry {
	return first(s.Candidates())
}

// Get returns the entry with exactly this tag, or nil. An empty tag never
// matches.
func (s *EntrySet) Get(tag string) *Entry {
	if tag == "" {
		return nil
	}
	for _, e := range s.entries {
		if e.tag == tag {
			return e
		}
	}
	return nil
}

// FindForRead resolves expr with the read vocabulary and returns the match.
func (s *EntrySet) FindForRead(expr string) (*Entry, error) {
	tag, err := s.ResolveTag(expr, ReadMode)
	if err != nil {
		return nil, err
	}
	entry := s.Get(tag)
	if entry == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, expr)
	}
	return entry, nil
}

// FindOrInitForWrite resolves expr with the write vocabulary. It returns the
// existing entry with the resolved tag or prepends a new, unsaved one.
func (s *EntrySet) FindOrInitForWrite(expr string) (*Entry, error) {
	tag, err := s.ResolveTag(expr, WriteMode)
	if err != nil {
		return nil, err
	}
	if existing := s.Get(tag); existing != nil {
		return existing, nil
	}

	entry := NewEntry(tag)
	entry.set = s
	s.entries = append([]*Entry{entry}, s.entries...)
	return entry, nil
}

// Remove drops the entry with this tag and reports whether one was found.
func (s *EntrySet) Remove(tag string) bool {
	for i, e := range s.entries {
		if e.tag == tag {
			e.set = nil
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// PruneCandidates removes every candidate and returns how many were dropped.
func (s *EntrySet) PruneCandidates() int {
	kept := s.entries[:0]
	pruned := 0
	for _, e := range s.entries {
		if e.Candidate() {
			e.set = nil
			pruned++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return pruned
}

func (s *EntrySet) filter(keep func(*Entry) bool) []*Entry {
	var out []*Entry
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func first(entries []*Entry) *Entry {
	if len(entries) == 0 {
		return nil
	}
	return entries[0]
}

var _ TagResolver = (*EntrySet)(nil)
