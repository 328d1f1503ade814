package rangeanalysis

// VersionedMap is the undo-logged map RangeAnalysis uses for its
// flow-sensitive range table (spec.md §4.3, grounded on
// original_source/src/generator/RangeAnalysis.h's `revisionMap_` +
// `rangeMap_` pair). Branch entry/exit is the hot path: an if-statement
// snapshots the map, runs a branch, and must cheaply undo it to try the
// other branch. Rather than cloning the whole table per branch (the
// straightforward but O(n)-per-branch approach), writes are recorded on an
// undo log; Mark/RestoreTo rewind that log in O(changes-since-mark), and
// Snapshot (an actual clone) is reserved for the join points that truly
// need two independent tables alive at once.
type VersionedMap[K comparable, V any] struct {
	data map[K]V
	rev  map[K]int
	undo []undoEntry[K, V]
}

type undoEntry[K comparable, V any] struct {
	key K
	had bool
	old V
}

// Mark identifies a point in the undo log to rewind to.
type Mark int

func NewVersionedMap[K comparable, V any]() *VersionedMap[K, V] {
	return &VersionedMap[K, V]{data: map[K]V{}, rev: map[K]int{}}
}

// Get returns the current value for key and whether it is present.
func (m *VersionedMap[K, V]) Get(key K) (V, bool) {
	v, ok := m.data[key]
	return v, ok
}

// Revision returns the number of times key has been written.
func (m *VersionedMap[K, V]) Revision(key K) int {
	return m.rev[key]
}

// Set writes value for key, recording an undo entry so a later RestoreTo
// can reverse it.
func (m *VersionedMap[K, V]) Set(key K, value V) {
	old, had := m.data[key]
	m.undo = append(m.undo, undoEntry[K, V]{key: key, had: had, old: old})
	m.data[key] = value
	m.rev[key]++
}

// Mark records the current undo-log length as a rewind point.
func (m *VersionedMap[K, V]) Mark() Mark {
	return Mark(len(m.undo))
}

// RestoreTo undoes every Set performed since mark, in reverse order.
func (m *VersionedMap[K, V]) RestoreTo(mark Mark) {
	for i := len(m.undo) - 1; i >= int(mark); i-- {
		e := m.undo[i]
		if e.had {
			m.data[e.key] = e.old
		} else {
			delete(m.data, e.key)
		}
		m.rev[e.key]--
	}
	m.undo = m.undo[:mark]
}

// Snapshot clones the current key/value contents, for use at join points
// (if/else, loop fix-point) that need two independently-evolved tables
// alive long enough to union or widen.
func (m *VersionedMap[K, V]) Snapshot() map[K]V {
	out := make(map[K]V, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// ApplyFrom overwrites m's current entries with the entries of snap,
// recorded as ordinary Sets so it remains undoable.
func (m *VersionedMap[K, V]) ApplyFrom(snap map[K]V) {
	for k, v := range snap {
		m.Set(k, v)
	}
}
