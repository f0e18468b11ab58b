package raftlog

import "sort"

type termRun struct {
	start int64
	term  int64
}

// Terms remembers where each term starts in the tail of the log so term
// lookups rarely touch the disk. It knows every index from floor onwards;
// older indexes must be read from the segments.
type Terms struct {
	floor     int64
	floorTerm int64
	runs      []termRun // Sorted by start, every start > floor.
}

func NewTerms(floor, floorTerm int64) *Terms {
	return &Terms{floor: floor, floorTerm: floorTerm}
}

// Reset forgets everything and starts over at floor.
func (t *Terms) Reset(floor, floorTerm int64) {
	t.floor = floor
	t.floorTerm = floorTerm
	t.runs = t.runs[:0]
}

// Append records the term of the entry at index, which must follow the
// last recorded index.
func (t *Terms) Append(index, term int64) {
	if term == t.lastTerm() {
		return
	}
	t.runs = append(t.runs, termRun{start: index, term: term})
}

func (t *Terms) lastTerm() int64 {
	if n := len(t.runs); n > 0 {
		return t.runs[n-1].term
	}
	return t.floorTerm
}

// TermAt returns the term of the entry at index. The second result is false
// when index is older than what Terms knows.
func (t *Terms) TermAt(index int64) (int64, bool) {
	if index < t.floor {
		return 0, false
	}

	i := sort.Search(len(t.runs), func(i int) bool { return t.runs[i].start > index })
	if i == 0 {
		return t.floorTerm, true
	}
	return t.runs[i-1].term, true
}

// Truncate drops everything after index, whose entry has the given term.
func (t *Terms) Truncate(index, term int64) {
	if index < t.floor {
		t.Reset(index, term)
		return
	}

	i := sort.Search(len(t.runs), func(i int) bool { return t.runs[i].start > index })
	t.runs = t.runs[:i]
}

// PruneBefore raises the floor to index, releasing runs that end before it.
func (t *Terms) PruneBefore(index int64) {
	if index <= t.floor {
		return
	}

	term, _ := t.TermAt(index)
	i := sort.Search(len(t.runs), func(i int) bool { return t.runs[i].start > index })
	t.runs = append(t.runs[:0], t.runs[i:]...)
	t.floor = index
	t.floorTerm = term
}
