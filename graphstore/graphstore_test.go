package graphstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/ir"
	"github.com/viant/codegraph/resolver"
)

type fakeStore struct {
	batches   [][]GraphMutation
	failFirst int
	calls     int
}

func (f *fakeStore) Apply(ctx context.Context, batch []GraphMutation) error {
	f.calls++
	if f.calls <= f.failFirst {
		return assert.AnError
	}
	cp := append([]GraphMutation{}, batch...)
	f.batches = append(f.batches, cp)
	return nil
}

func (f *fakeStore) DeleteNodes(ctx context.Context, ids []ir.CanonicalId) error { return nil }

func TestNodesBeforeEdgesWithinBatch(t *testing.T) {
	store := &fakeStore{}
	e := New(store, 10, DefaultRetryPolicy())

	elements := []*ir.Element{{ID: "n1", Kind: ir.KindFunction, Properties: ir.Properties{}}}
	edges := []*resolver.Edge{{SourceID: "n1", Type: "CALLS", TargetID: "n2", Properties: ir.Properties{}}}

	err := e.Emit(context.Background(), elements, edges)
	require.NoError(t, err)
	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0], 2)
	assert.Equal(t, OpUpsertNode, store.batches[0][0].Op)
	assert.Equal(t, OpUpsertEdge, store.batches[0][1].Op)
}

func TestBatchSizeSplitsMutations(t *testing.T) {
	store := &fakeStore{}
	e := New(store, 2, DefaultRetryPolicy())

	var elements []*ir.Element
	for i := 0; i < 5; i++ {
		elements = append(elements, &ir.Element{ID: ir.CanonicalId(string(rune('a' + i))), Kind: ir.KindVariable, Properties: ir.Properties{}})
	}

	err := e.Emit(context.Background(), elements, nil)
	require.NoError(t, err)
	assert.Len(t, store.batches, 3)
	assert.Len(t, store.batches[0], 2)
	assert.Len(t, store.batches[2], 1)
}

func TestUndefinedPropertyDropped(t *testing.T) {
	store := &fakeStore{}
	e := New(store, 10, DefaultRetryPolicy())

	elements := []*ir.Element{{ID: "n1", Kind: ir.KindFunction, Properties: ir.Properties{"docstring": "undefined", "name": "f"}}}
	err := e.Emit(context.Background(), elements, nil)
	require.NoError(t, err)
	props := store.batches[0][0].Properties
	_, hasDoc := props["docstring"]
	assert.False(t, hasDoc)
	assert.Equal(t, "f", props["name"])
}

func TestArrayOfObjectsSerializedToString(t *testing.T) {
	store := &fakeStore{}
	e := New(store, 10, DefaultRetryPolicy())

	params := []map[string]interface{}{{"name": "id", "type": "int"}, {"name": "name", "type": "string"}}
	elements := []*ir.Element{{ID: "n1", Kind: ir.KindFunction, Properties: ir.Properties{"params": params, "name": "f"}}}
	err := e.Emit(context.Background(), elements, nil)
	require.NoError(t, err)

	props := store.batches[0][0].Properties
	serialized, ok := props["params"].(string)
	require.True(t, ok, "expected params to be serialized to a string")
	assert.Contains(t, serialized, `"name":"id"`)
	assert.Contains(t, serialized, `"type":"string"`)
	assert.Equal(t, "f", props["name"])
}

func TestRetryThenSucceed(t *testing.T) {
	store := &fakeStore{failFirst: 1}
	e := New(store, 10, RetryPolicy{MaxAttempts: 3})

	elements := []*ir.Element{{ID: "n1", Kind: ir.KindFunction, Properties: ir.Properties{}}}
	err := e.Emit(context.Background(), elements, nil)
	require.NoError(t, err)
	assert.Len(t, store.batches, 1)
}

func TestRetryBudgetExhaustedSurfacesEmitError(t *testing.T) {
	store := &fakeStore{failFirst: 10}
	e := New(store, 10, RetryPolicy{MaxAttempts: 2})

	elements := []*ir.Element{{ID: "n1", Kind: ir.KindFunction, Properties: ir.Properties{}}}
	err := e.Emit(context.Background(), elements, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emit error")
}

func TestCancellationBetweenBatches(t *testing.T) {
	store := &fakeStore{}
	e := New(store, 1, DefaultRetryPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	elements := []*ir.Element{{ID: "n1", Kind: ir.KindFunction, Properties: ir.Properties{}}}
	err := e.Emit(ctx, elements, nil)
	require.Error(t, err)
}
