package ctdf

import "iter"

// OrderedMap is a key/value container that iterates in first-insertion order.
// Overwriting an existing key keeps its original position.
type OrderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{
		values: map[K]V{},
	}
}

func (m *OrderedMap[K, V]) Set(key K, value V) {
	if m.values == nil {
		m.values = map[K]V{}
	}

	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	if m == nil {
		var empty V
		return empty, false
	}

	value, ok := m.values[key]
	return value, ok
}

func (m *OrderedMap[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *OrderedMap[K, V]) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	if m == nil {
		return nil
	}

	keys := make([]K, len(m.keys))
	copy(keys, m.keys)

	return keys
}

func (m *OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}

		for _, key := range m.keys {
			if !yield(key, m.values[key]) {
				return
			}
		}
	}
}

// Clone is a shallow copy; values are shared with the original.
func (m *OrderedMap[K, V]) Clone() *OrderedMap[K, V] {
	clone := NewOrderedMap[K, V]()
	for key, value := range m.All() {
		clone.Set(key, value)
	}

	return clone
}
