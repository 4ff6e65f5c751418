package bitmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnegard/newfs/internal/bitmap"
)

func TestAllocatorAllocateFillsLowestFreeBitFirst(t *testing.T) {
	a := bitmap.New(8)

	first, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 0, first)

	second, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 1, second)
}

func TestAllocatorFreeThenReallocate(t *testing.T) {
	a := bitmap.New(4)

	for i := 0; i < 4; i++ {
		_, err := a.Allocate()
		require.NoError(t, err)
	}

	_, err := a.Allocate()
	assert.ErrorIs(t, err, bitmap.ErrNoSpace)

	require.NoError(t, a.Free(2))
	freed, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 2, freed)
}

func TestAllocatorFreeOutOfRange(t *testing.T) {
	a := bitmap.New(4)
	assert.Error(t, a.Free(-1))
	assert.Error(t, a.Free(4))
}

func TestAllocatorRoundTripThroughBytes(t *testing.T) {
	a := bitmap.New(16)
	_, err := a.Allocate()
	require.NoError(t, err)
	_, err = a.Allocate()
	require.NoError(t, err)

	restored := bitmap.FromBytes(16, a.Bytes())
	assert.True(t, restored.Get(0))
	assert.True(t, restored.Get(1))
	assert.False(t, restored.Get(2))
}
