package models_test

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotellar/internal/lottery/models"
)

func addLottery(t *testing.T, r *models.Registry, max uint32) *models.Lottery {
	t.Helper()
	id, err := r.NextID()
	require.NoError(t, err)
	l, err := models.NewLottery(id, "GCREATOR", "L", big.NewInt(0), 0, max, time.Unix(0, 0))
	require.NoError(t, err)
	require.NoError(t, r.Add(l))
	return l
}

func TestRegistryIssuesIncreasingIDs(t *testing.T) {
	r := models.NewRegistry()
	assert.Equal(t, models.ID(0), r.Counter)

	for want := models.ID(1); want <= 3; want++ {
		l := addLottery(t, r, 1)
		assert.Equal(t, want, l.ID)
		assert.Equal(t, want, r.Counter)
	}
}

func TestRegistryAddRejectsWrongID(t *testing.T) {
	r := models.NewRegistry()
	l, err := models.NewLottery(5, "GCREATOR", "L", big.NewInt(0), 0, 1, time.Unix(0, 0))
	require.NoError(t, err)

	require.Error(t, r.Add(l))
	assert.Empty(t, r.Lotteries)
	assert.Equal(t, models.ID(0), r.Counter)
}

func TestRegistryExhaustedIDSpace(t *testing.T) {
	r := models.NewRegistry()
	r.Counter = math.MaxUint32
	_, err := r.NextID()
	require.Error(t, err)
}

func TestRegistryQueriesAscendingCopies(t *testing.T) {
	r := models.NewRegistry()
	for range 4 {
		addLottery(t, r, 1)
	}
	require.NoError(t, r.Lotteries[2].Complete("w", false))
	require.NoError(t, r.Lotteries[4].Complete("w", false))

	all := r.List()
	require.Len(t, all, 4)
	for i, l := range all {
		assert.Equal(t, models.ID(i+1), l.ID)
	}

	completed := r.Completed()
	require.Len(t, completed, 2)
	assert.Equal(t, models.ID(2), completed[0].ID)
	assert.Equal(t, models.ID(4), completed[1].ID)

	open := r.Open()
	require.Len(t, open, 2)
	assert.Equal(t, models.ID(1), open[0].ID)
	assert.Equal(t, models.ID(3), open[1].ID)

	all[0].Name = "mutated"
	assert.Equal(t, "L", r.Lotteries[1].Name)
}

func TestRegistryGet(t *testing.T) {
	r := models.NewRegistry()
	addLottery(t, r, 1)

	l, err := r.Get(1)
	require.NoError(t, err)
	assert.Equal(t, models.ID(1), l.ID)

	_, err = r.Get(9)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRegistryCloneIsDeep(t *testing.T) {
	r := models.NewRegistry()
	addLottery(t, r, 2)

	c := r.Clone()
	require.NoError(t, c.Lotteries[1].Enter("p1", true))
	addLottery(t, c, 1)

	assert.Empty(t, r.Lotteries[1].Participants)
	assert.Len(t, r.Lotteries, 1)
	assert.Equal(t, models.ID(1), r.Counter)
}

func TestRegistryValidate(t *testing.T) {
	t.Run("accepts a consistent registry", func(t *testing.T) {
		r := models.NewRegistry()
		l := addLottery(t, r, 2)
		require.NoError(t, l.Enter("p1", true))
		require.NoError(t, r.Validate(true))
	})

	t.Run("rejects mismatched key", func(t *testing.T) {
		r := models.NewRegistry()
		l := addLottery(t, r, 1)
		delete(r.Lotteries, 1)
		r.Lotteries[7] = l
		r.Counter = 7
		assert.Error(t, r.Validate(false))
	})

	t.Run("rejects id above counter", func(t *testing.T) {
		r := models.NewRegistry()
		addLottery(t, r, 1)
		r.Counter = 0
		assert.Error(t, r.Validate(false))
	})

	t.Run("rejects overflowing participants", func(t *testing.T) {
		r := models.NewRegistry()
		l := addLottery(t, r, 1)
		l.Participants = []models.Address{"a", "b"}
		assert.Error(t, r.Validate(false))
	})

	t.Run("rejects completed without winner", func(t *testing.T) {
		r := models.NewRegistry()
		l := addLottery(t, r, 1)
		l.IsCompleted = true
		assert.Error(t, r.Validate(false))
	})

	t.Run("duplicate participants depend on revision", func(t *testing.T) {
		r := models.NewRegistry()
		l := addLottery(t, r, 2)
		l.Participants = []models.Address{"a", "a"}
		assert.NoError(t, r.Validate(false))
		assert.Error(t, r.Validate(true))
	})
}

func TestRevision(t *testing.T) {
	v1, err := models.ParseRevision("v1")
	require.NoError(t, err)
	assert.False(t, v1.RejectsDuplicates())
	assert.False(t, v1.SupportsCompletion())
	assert.False(t, v1.SupportsInitialize())
	assert.False(t, v1.SupportsCount())

	v2, err := models.ParseRevision("v2")
	require.NoError(t, err)
	assert.True(t, v2.RejectsDuplicates())
	assert.True(t, v2.SupportsCompletion())
	assert.True(t, v2.SupportsInitialize())
	assert.True(t, v2.SupportsCount())

	_, err = models.ParseRevision("v3")
	assert.Error(t, err)
}
