package nodestore

import (
	"testing"

	"github.com/specialistvlad/pipeliner/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterOrFind_Deduplicates(t *testing.T) {
	s := New()

	first := s.RegisterOrFind(node.New("micrographs.star", node.Micrograph))
	second := s.RegisterOrFind(node.New("micrographs.star", node.ParticleData))

	assert.Equal(t, 0, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.Len())

	// Existing entry wins over the type passed in by the second call.
	n, ok := s.Get(first)
	require.True(t, ok)
	assert.Equal(t, node.Micrograph, n.Type)
}

func TestRegisterOrFind_DiscardsIncomingEdges(t *testing.T) {
	s := New()
	idx := s.RegisterOrFind(node.New("a.star", node.Mask))

	incoming := node.New("a.star", node.Mask)
	incoming.Producer = 5
	incoming.AddConsumer(9)
	assert.Equal(t, idx, s.RegisterOrFind(incoming))

	n, _ := s.Get(idx)
	assert.Equal(t, node.NoProducer, n.Producer)
	assert.Empty(t, n.Consumers)
}

func TestFindByName(t *testing.T) {
	s := New()
	assert.Equal(t, NotFound, s.FindByName("missing.star"))

	s.RegisterOrFind(node.New("a.star", node.Mask))
	b := s.RegisterOrFind(node.New("b.star", node.Mask))
	assert.Equal(t, b, s.FindByName("b.star"))
	assert.Equal(t, NotFound, s.FindByName("c.star"))
}

func TestAppend_AllowsDuplicatesAndFindReturnsFirst(t *testing.T) {
	s := New()
	first := s.Append(node.New("dup.star", node.Mask))
	s.Append(node.New("dup.star", node.Reference))
	assert.Equal(t, first, s.FindByName("dup.star"))
}

func TestDelete_TombstonesWithoutReuse(t *testing.T) {
	s := New()
	a := s.RegisterOrFind(node.New("a.star", node.Mask))
	b := s.RegisterOrFind(node.New("b.star", node.Mask))

	require.NoError(t, s.Delete(a))
	assert.True(t, s.IsDeleted(a))
	assert.False(t, s.IsDeleted(b))
	assert.Equal(t, NotFound, s.FindByName("a.star"))
	_, ok := s.Get(a)
	assert.False(t, ok)

	// Re-registering a deleted name allocates a fresh slot.
	again := s.RegisterOrFind(node.New("a.star", node.Mask))
	assert.Equal(t, 2, again)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.Live())

	// b keeps its original index.
	n, ok := s.Get(b)
	require.True(t, ok)
	assert.Equal(t, "b.star", n.Name)

	err := s.Delete(a)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(99), ErrNotFound)
	assert.ErrorIs(t, s.Delete(-1), ErrNotFound)
}

func TestGet_PointerIsStable(t *testing.T) {
	s := New()
	idx := s.RegisterOrFind(node.New("a.star", node.Mask))
	n, _ := s.Get(idx)

	for i := 0; i < 100; i++ {
		s.Append(node.New("filler.star", node.Mask))
	}
	n.AddConsumer(4)

	again, _ := s.Get(idx)
	assert.Equal(t, []int{4}, again.Consumers)
}

func TestEach_SkipsDeleted(t *testing.T) {
	s := New()
	s.RegisterOrFind(node.New("a.star", node.Mask))
	b := s.RegisterOrFind(node.New("b.star", node.Mask))
	s.RegisterOrFind(node.New("c.star", node.Mask))
	require.NoError(t, s.Delete(b))

	var names []string
	var indices []int
	s.Each(func(i int, n *node.Node) {
		indices = append(indices, i)
		names = append(names, n.Name)
	})
	assert.Equal(t, []int{0, 2}, indices)
	assert.Equal(t, []string{"a.star", "c.star"}, names)
}
