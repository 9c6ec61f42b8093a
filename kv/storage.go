package kv

import (
	"iter"

	"github.com/indigo-web/connector/internal/strutil"
)

// Pair is a single header field. Key is kept exactly as received or set, the
// comparison is done case-insensitively.
type Pair struct {
	Key, Value string
}

// Storage is an ordered multimap of (string, string) pairs with case-insensitive keys. Duplicate
// keys are allowed and keep their relative order, which matters for headers like Set-Cookie.
// It uses linear search, which proves to be more efficient on relatively low amount of
// entries, which often enough is the case.
//
// None of the methods return slices aliasing the internal storage, except Expose.
type Storage struct {
	pairs []Pair
}

func New() *Storage {
	return new(Storage)
}

// NewPrealloc returns an instance of Storage with pre-allocated underlying storage.
func NewPrealloc(n int) *Storage {
	return &Storage{
		pairs: make([]Pair, 0, n),
	}
}

// NewFromPairs returns a new instance holding a copy of passed pairs in the same order.
func NewFromPairs(pairs ...Pair) *Storage {
	s := NewPrealloc(len(pairs))
	s.pairs = append(s.pairs, pairs...)
	return s
}

// Add appends a new pair of key and value. Existing pairs with the same key are left intact.
func (s *Storage) Add(key, value string) *Storage {
	s.pairs = append(s.pairs, Pair{
		Key:   key,
		Value: value,
	})
	return s
}

// Set replaces all the values of the key by a single one. The pair takes the position of the
// first occurrence of the key, or is appended if there was none.
func (s *Storage) Set(key, value string) *Storage {
	for i, pair := range s.pairs {
		if strutil.CmpFold(pair.Key, key) {
			s.pairs[i] = Pair{Key: key, Value: value}
			s.pairs = deleteFrom(s.pairs, i+1, key)
			return s
		}
	}

	return s.Add(key, value)
}

// Delete removes all the pairs with the key.
func (s *Storage) Delete(key string) *Storage {
	s.pairs = deleteFrom(s.pairs, 0, key)
	return s
}

// Value returns the first value, corresponding to the key. Otherwise, empty string is returned
func (s *Storage) Value(key string) string {
	return s.ValueOr(key, "")
}

// ValueOr returns either the first value corresponding to the key or custom value, defined
// via the second parameter.
func (s *Storage) ValueOr(key, or string) string {
	value, found := s.Get(key)
	if !found {
		return or
	}

	return value
}

// Get returns a value and a bool, indicating whether the value was found. If it wasn't, it'll
// be an empty string.
func (s *Storage) Get(key string) (value string, found bool) {
	for _, pair := range s.pairs {
		if strutil.CmpFold(key, pair.Key) {
			return pair.Value, true
		}
	}

	return "", false
}

// Values returns all values by the key in their original order. Returns nil if key doesn't
// exist. The returned slice is owned by the caller.
func (s *Storage) Values(key string) (values []string) {
	for _, pair := range s.pairs {
		if strutil.CmpFold(pair.Key, key) {
			values = append(values, pair.Value)
		}
	}

	return values
}

// Keys iterates over unique keys. The first spelling of each key is yielded.
func (s *Storage) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i, pair := range s.pairs {
			if contains(s.pairs[:i], pair.Key) {
				continue
			}

			if !yield(pair.Key) {
				return
			}
		}
	}
}

// Pairs iterates over all the pairs in their order.
func (s *Storage) Pairs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, pair := range s.pairs {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Has indicates, whether there's an entry of the key.
func (s *Storage) Has(key string) bool {
	_, found := s.Get(key)
	return found
}

// Len returns a number of stored pairs.
func (s *Storage) Len() int {
	return len(s.pairs)
}

func (s *Storage) Empty() bool {
	return s.Len() == 0
}

// Clone creates a deep copy, which may be used later or stored somewhere safely.
func (s *Storage) Clone() *Storage {
	return NewFromPairs(s.pairs...)
}

// Expose exposes the underlying pairs slice. Modifying it modifies the storage.
func (s *Storage) Expose() []Pair {
	return s.pairs
}

// Clear all the entries. However, all the allocated space won't be freed.
func (s *Storage) Clear() *Storage {
	s.pairs = s.pairs[:0]
	return s
}

func deleteFrom(pairs []Pair, offset int, key string) []Pair {
	n := offset

	for _, pair := range pairs[offset:] {
		if !strutil.CmpFold(pair.Key, key) {
			pairs[n] = pair
			n++
		}
	}

	clear(pairs[n:])

	return pairs[:n]
}

func contains(pairs []Pair, key string) bool {
	for _, pair := range pairs {
		if strutil.CmpFold(pair.Key, key) {
			return true
		}
	}

	return false
}
