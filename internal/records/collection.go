// Package records folds parsed records into the collection a run serializes.
package records

// Collection accumulates records and iterates them in output order
type Collection[T any] interface {
	Add(rec T)
	Len() int
	Each(fn func(T) error) error
}

// Keyed keeps one record per key. Iteration follows first-seen key order,
// values are those of the last Add for that key.
type Keyed[T any] struct {
	key   func(T) string
	index map[string]int
	items []T
}

// NewKeyed creates a merge-by-key collection
func NewKeyed[T any](key func(T) string) *Keyed[T] {
	return &Keyed[T]{
		key:   key,
		index: make(map[string]int),
	}
}

// Add inserts rec or replaces the record already stored under its key
func (k *Keyed[T]) Add(rec T) {
	id := k.key(rec)
	if i, ok := k.index[id]; ok {
		k.items[i] = rec
		return
	}
	k.index[id] = len(k.items)
	k.items = append(k.items, rec)
}

func (k *Keyed[T]) Len() int { return len(k.items) }

func (k *Keyed[T]) Each(fn func(T) error) error {
	return each(k.items, fn)
}

// Get returns the record stored under id
func (k *Keyed[T]) Get(id string) (T, bool) {
	i, ok := k.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return k.items[i], true
}

// Sequence is an append-only collection without deduplication
type Sequence[T any] struct {
	items []T
}

// NewSequence creates an append-only collection
func NewSequence[T any]() *Sequence[T] {
	return &Sequence[T]{}
}

func (s *Sequence[T]) Add(rec T) { s.items = append(s.items, rec) }

func (s *Sequence[T]) Len() int { return len(s.items) }

func (s *Sequence[T]) Each(fn func(T) error) error {
	return each(s.items, fn)
}

func each[T any](items []T, fn func(T) error) error {
	for _, it := range items {
		if err := fn(it); err != nil {
			return err
		}
	}
	return nil
}

// Slice copies a collection into a slice in iteration order
func Slice[T any](c Collection[T]) []T {
	out := make([]T, 0, c.Len())
	_ = c.Each(func(rec T) error {
		out = append(out, rec)
		return nil
	})
	return out
}
