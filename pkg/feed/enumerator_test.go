package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceEnumerator(t *testing.T) {
	records, err := Collect(context.Background(), SliceEnumerator(
		tradeBarAt("spy", utcDay(2021, 1, 1)),
		tradeBarAt("spy", utcDay(2021, 1, 2)),
	))
	assert.NoError(t, err, "Collect should not error")
	assert.Len(t, records, 2, "all records drain in order")
}

func TestLazyEnumeratorDefersConstruction(t *testing.T) {
	built := false
	lazy := NewLazyEnumerator(func(ctx context.Context) (Enumerator, error) {
		built = true
		return SliceEnumerator(tradeBarAt("spy", utcDay(2021, 1, 1))), nil
	})
	assert.False(t, built, "construction waits for the first pull")

	_, ok, err := lazy.Next(context.Background())
	assert.NoError(t, err, "Next should not error")
	assert.True(t, ok, "the deferred enumerator emits")
	assert.True(t, built, "construction ran on the first pull")
}

func TestLazyEnumeratorBuildFailure(t *testing.T) {
	boom := errors.New("boom")
	lazy := NewLazyEnumerator(func(ctx context.Context) (Enumerator, error) {
		return nil, boom
	})

	_, ok, err := lazy.Next(context.Background())
	assert.ErrorIs(t, err, boom, "construction failures surface on the first pull")
	assert.False(t, ok, "nothing emits")

	_, ok, err = lazy.Next(context.Background())
	assert.NoError(t, err, "subsequent pulls are quiet")
	assert.False(t, ok, "the enumerator stays exhausted")
}
