// Package cache keeps the results of expensive matrix operations keyed by a
// fingerprint of the operation and its operands.
package cache

import (
	"encoding/binary"
	"math"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/23skdu/longbow-linalg/internal/matrix"
)

// Shape is the row and column count of one operand.
type Shape struct {
	Rows, Cols int
}

// Key identifies an operation applied to particular operands. Hash is a
// 64-bit fingerprint of the operation and the operand contents. The
// operation name and operand shapes are kept alongside and compared on
// lookup, so a hash collision across operations or shapes is a miss.
type Key struct {
	Hash   uint64
	op     string
	shapes []Shape
}

func (k Key) matches(op string, shapes []Shape) bool {
	return k.op == op && slices.Equal(k.shapes, shapes)
}

// Fingerprint hashes op together with the shape and contents of each operand.
func Fingerprint(op string, operands ...matrix.Matrix[float64]) Key {
	key := Key{op: op, shapes: make([]Shape, len(operands))}
	h := xxhash.New()
	_, _ = h.WriteString(op)
	var buf [8]byte
	for n, m := range operands {
		rows, cols := m.Rows(), m.Cols()
		key.shapes[n] = Shape{Rows: rows, Cols: cols}
		binary.LittleEndian.PutUint64(buf[:], uint64(rows))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(cols))
		_, _ = h.Write(buf[:])
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(m.Get(i, j)))
				_, _ = h.Write(buf[:])
			}
		}
	}
	key.Hash = h.Sum64()
	return key
}

// ResultCache stores operation results.
type ResultCache interface {
	// Get retrieves a result from the cache.
	Get(key Key) (*matrix.Dense[float64], bool)
	// Put stores a result in the cache.
	Put(key Key, m *matrix.Dense[float64])
	// Size returns the number of items in the cache.
	Size() int
}

// MapCache is an in-memory ResultCache holding at most maxEntries results.
// When full, an arbitrary entry is evicted.
type MapCache struct {
	data       map[uint64]entry
	maxEntries int
	mu         sync.RWMutex
}

type entry struct {
	key Key
	m   *matrix.Dense[float64]
}

// NewMapCache creates a cache. maxEntries <= 0 means unbounded.
func NewMapCache(maxEntries int) *MapCache {
	return &MapCache{
		data:       make(map[uint64]entry),
		maxEntries: maxEntries,
	}
}

func (c *MapCache) Get(key Key) (*matrix.Dense[float64], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Return copy to avoid modification of cached value
	if e, ok := c.data[key.Hash]; ok {
		if e.key.matches(key.op, key.shapes) {
			cacheHits.Inc()
			return e.m.Clone(), true
		}
		cacheCollisions.Inc()
	}
	cacheMisses.Inc()
	return nil, false
}

func (c *MapCache) Put(key Key, m *matrix.Dense[float64]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.data[key.Hash]; !ok && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		for k := range c.data {
			delete(c.data, k)
			cacheEvictions.Inc()
			break
		}
	}
	key.shapes = slices.Clone(key.shapes)
	c.data[key.Hash] = entry{key: key, m: m.Clone()}
	cacheEntries.Set(float64(len(c.data)))
}

func (c *MapCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
