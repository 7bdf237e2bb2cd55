package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_AllocReleaseReuse(t *testing.T) {
	var a arena[int]
	x := a.alloc()
	y := a.alloc()
	assert.Equal(t, int32(0), x)
	assert.Equal(t, int32(1), y)
	assert.Equal(t, 2, a.live())

	*a.at(x) = 7
	gx := a.gen(x)
	assert.True(t, a.valid(x, gx))

	a.release(x)
	assert.False(t, a.valid(x, gx), "release must invalidate the old generation")
	assert.Equal(t, 1, a.live())

	z := a.alloc()
	assert.Equal(t, x, z, "freed slot is reused")
	assert.Zero(t, *a.at(z), "reused slot is zeroed")
	assert.True(t, a.valid(z, a.gen(z)))
	assert.NotEqual(t, gx, a.gen(z))

	assert.False(t, a.valid(noSlot, 0))
	assert.False(t, a.valid(99, 1))
}

func TestArena_ResetKeepsGenerationsMonotonic(t *testing.T) {
	var a arena[string]
	for i := 0; i < 4; i++ {
		a.alloc()
	}
	before := a.gen(2)
	a.reset()
	assert.Equal(t, 0, a.live())
	assert.False(t, a.valid(2, before))

	assert.Equal(t, int32(0), a.alloc(), "slot 0 is reused first")
	assert.Greater(t, a.gen(0), uint32(1))
}

func TestBucketRemove(t *testing.T) {
	els := make([]*Element, 4)
	for i := range els {
		els[i] = NewElement(nil, i)
		els[i].pos = i
	}
	bucket := append([]*Element(nil), els...)

	bucket = bucketRemove(bucket, 1)
	require.Len(t, bucket, 3)
	assert.Same(t, els[3], bucket[1])
	assert.Equal(t, 1, els[3].pos)

	bucket = bucketRemove(bucket, 2)
	require.Len(t, bucket, 2)
	assert.Same(t, els[0], bucket[0])
	assert.Same(t, els[3], bucket[1])
}
