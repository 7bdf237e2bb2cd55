package nn

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBatch_MatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	els := makeElements(generatePoints(rng, 1000, 3))
	tree, err := BuildVPTree(testConfig(3), els)
	require.NoError(t, err)
	queries := generatePoints(rng, 97, 3)

	for _, workers := range []int{0, 1, 3, 8, 200} {
		got, err := SearchBatch(context.Background(), tree, queries, 5, workers)
		require.NoError(t, err, "workers=%d", workers)
		require.Len(t, got, len(queries))
		for i, q := range queries {
			want, err := tree.Search(q, 5)
			require.NoError(t, err)
			assert.Equal(t, want, got[i], "workers=%d query %d", workers, i)
		}
	}
}

func TestSearchBatch_Empty(t *testing.T) {
	tree, err := NewVPTree(testConfig(2))
	require.NoError(t, err)
	got, err := SearchBatch(context.Background(), tree, nil, 3, 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchBatch_Errors(t *testing.T) {
	tree := mustVPTree(t, testConfig(2), makeElements([][]float64{{0, 0}, {1, 1}}))

	_, err := SearchBatch(context.Background(), tree, [][]float64{{0, 0}}, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = SearchBatch(context.Background(), tree, [][]float64{{0, 0}, {1}}, 1, 1)
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Contains(t, err.Error(), "query 1")
}

func TestSearchBatch_Cancelled(t *testing.T) {
	tree := mustVPTree(t, testConfig(2), makeElements([][]float64{{0, 0}, {1, 1}}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SearchBatch(ctx, tree, [][]float64{{0, 0}, {1, 1}, {2, 2}}, 1, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
