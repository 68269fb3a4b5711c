package engine

import (
	"container/list"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/dylhunn/dragontoothmg"
)

// DefaultTransTableSize bounds the table to roughly a million entries.
const DefaultTransTableSize = 1_000_000

// TTEntry is the payload cached per position hash.
type TTEntry struct {
	Score    int
	BestMove dragontoothmg.Move
	Depth    int
}

type ttRecord struct {
	hash  uint64
	entry TTEntry
}

// TransTable memoizes search results keyed by Zobrist hash. Replacement is
// depth-preferred (a shallower result never overwrites a deeper one) and
// eviction past capacity is least-recently-used. Two distinct positions
// hashing to the same value silently share a slot; that is accepted
// approximate-cache behavior.
type TransTable struct {
	maxSize int
	zobrist *zobristTable
	slots   map[uint64]*list.Element
	order   *list.List // front = least recently used

	Hits       uint64
	Misses     uint64
	Collisions uint64
}

func NewTransTable(maxSize int) *TransTable {
	if maxSize <= 0 {
		maxSize = DefaultTransTableSize
	}
	return &TransTable{
		maxSize: maxSize,
		zobrist: newZobristTable(zobristSeed),
		slots:   make(map[uint64]*list.Element),
		order:   list.New(),
	}
}

// Hash exposes the position hash for tests and diagnostics.
func (t *TransTable) Hash(b *dragontoothmg.Board) uint64 {
	return t.zobrist.hash(b)
}

// Get returns the cached entry for the position if one is stored at depth
// >= minDepth. A hit refreshes the entry's recency.
func (t *TransTable) Get(b *dragontoothmg.Board, minDepth int) (TTEntry, bool) {
	hash := t.zobrist.hash(b)
	if elem, ok := t.slots[hash]; ok {
		rec := elem.Value.(*ttRecord)
		if rec.entry.Depth >= minDepth {
			t.order.MoveToBack(elem)
			t.Hits++
			return rec.entry, true
		}
	}
	t.Misses++
	return TTEntry{}, false
}

// Put stores a search result for the position. An existing entry is only
// replaced when the new depth is at least as deep; otherwise the write is
// dropped and counted as a collision.
func (t *TransTable) Put(b *dragontoothmg.Board, score int, bestMove dragontoothmg.Move, depth int) {
	hash := t.zobrist.hash(b)
	if elem, ok := t.slots[hash]; ok {
		rec := elem.Value.(*ttRecord)
		if rec.entry.Depth <= depth {
			rec.entry = TTEntry{Score: score, BestMove: bestMove, Depth: depth}
			t.order.MoveToBack(elem)
		} else {
			t.Collisions++
		}
		return
	}

	elem := t.order.PushBack(&ttRecord{hash: hash, entry: TTEntry{Score: score, BestMove: bestMove, Depth: depth}})
	t.slots[hash] = elem

	if t.order.Len() > t.maxSize {
		oldest := t.order.Front()
		delete(t.slots, oldest.Value.(*ttRecord).hash)
		t.order.Remove(oldest)
	}
}

// Len returns the number of stored entries.
func (t *TransTable) Len() int {
	return t.order.Len()
}

// Clear drops all entries and resets the counters.
func (t *TransTable) Clear() {
	t.slots = make(map[uint64]*list.Element)
	t.order = list.New()
	t.Hits = 0
	t.Misses = 0
	t.Collisions = 0
}

// Stats renders a one-line usage summary.
func (t *TransTable) Stats() string {
	lookups := t.Hits + t.Misses
	hitRate := 0.0
	if lookups > 0 {
		hitRate = float64(t.Hits) / float64(lookups) * 100
	}
	return fmt.Sprintf("tt: %s/%s entries, %s hits, %s misses (%.2f%% hit rate), %s collisions",
		humanize.Comma(int64(t.order.Len())),
		humanize.Comma(int64(t.maxSize)),
		humanize.Comma(int64(t.Hits)),
		humanize.Comma(int64(t.Misses)),
		hitRate,
		humanize.Comma(int64(t.Collisions)))
}
