package ctdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedMapKeepsFirstSeenOrder(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("764", 1)
	m.Set("243", 2)
	m.Set("722", 3)
	m.Set("243", 20)

	assert.Equal(t, []string{"764", "243", "722"}, m.Keys())
	assert.Equal(t, 3, m.Len())

	value, ok := m.Get("243")
	assert.True(t, ok)
	assert.Equal(t, 20, value)

	assert.False(t, m.Has("385"))
}

func TestOrderedMapAllIteratesInOrder(t *testing.T) {
	m := NewOrderedMap[string, string]()
	m.Set("b", "B")
	m.Set("a", "A")
	m.Set("c", "C")

	var keys, values []string
	for key, value := range m.All() {
		keys = append(keys, key)
		values = append(values, value)
	}

	assert.Equal(t, []string{"b", "a", "c"}, keys)
	assert.Equal(t, []string{"B", "A", "C"}, values)
}

func TestOrderedMapNilAndZeroValue(t *testing.T) {
	var nilMap *OrderedMap[string, int]
	assert.Equal(t, 0, nilMap.Len())
	assert.Nil(t, nilMap.Keys())
	for range nilMap.All() {
		t.Fatal("nil map should not yield")
	}

	var zero OrderedMap[string, int]
	zero.Set("x", 1)
	assert.Equal(t, []string{"x"}, zero.Keys())
}

func TestOrderedMapCloneIsIndependent(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("a", 1)

	clone := m.Clone()
	clone.Set("b", 2)

	assert.Equal(t, []string{"a"}, m.Keys())
	assert.Equal(t, []string{"a", "b"}, clone.Keys())

	keys := m.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"a"}, m.Keys())
}
