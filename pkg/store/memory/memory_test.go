package memory

import (
	"context"
	"testing"

	"github.com/OFFIS-RIT/dunning/backend/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientOp(id string) store.Op {
	return store.Op{
		Statement: store.StmtCreateClientDebt,
		Params: map[string]any{
			"client_id": id,
			"debt_id":   "D-" + id,
			"client":    map[string]any{"id": id, "name": "Client " + id},
			"debt":      map[string]any{"id": "D-" + id, "original_amount": 100.0},
		},
	}
}

func TestRunInTransactionRollsBackOnExpect(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.RunInTransaction(ctx, []store.Op{clientOp("C1")}))

	err := s.RunInTransaction(ctx, []store.Op{
		{
			Statement: store.StmtCreateInteraction,
			Params:    map[string]any{"id": "I1", "client_id": "C1", "props": map[string]any{"id": "I1"}},
			Expect:    1,
		},
		{
			Statement: store.StmtCreateInteraction,
			Params:    map[string]any{"id": "I2", "client_id": "missing", "props": map[string]any{"id": "I2"}},
			Expect:    1,
		},
	})
	require.ErrorIs(t, err, store.ErrExpectationFailed)
	assert.Equal(t, 0, s.CountLabel(store.LabelInteraction))

	nodes, rels := s.Counts()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, rels)
}

func TestDuplicateClientFails(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.RunInTransaction(ctx, []store.Op{clientOp("C1")}))
	require.Error(t, s.RunInTransaction(ctx, []store.Op{clientOp("C1")}))
	assert.Equal(t, 1, s.CountLabel(store.LabelClient))
}

func TestResetClearsGraph(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.RunInTransaction(ctx, []store.Op{clientOp("C1"), clientOp("C2")}))

	_, err := s.RunQuery(ctx, store.StmtResetGraph, nil)
	require.NoError(t, err)
	nodes, rels := s.Counts()
	assert.Zero(t, nodes)
	assert.Zero(t, rels)
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	s := New()
	assert.True(t, s.TestConnection(ctx))

	s.SetAvailable(false)
	assert.False(t, s.TestConnection(ctx))
	_, err := s.RunQuery(ctx, store.StmtListClients, nil)
	require.ErrorIs(t, err, store.ErrGraphUnavailable)
	require.ErrorIs(t, s.RunInTransaction(ctx, []store.Op{clientOp("C1")}), store.ErrGraphUnavailable)

	s.SetAvailable(true)
	assert.True(t, s.TestConnection(ctx))
}

func TestUnknownStatementUnsupported(t *testing.T) {
	_, err := New().RunQuery(context.Background(), store.Statement("nope"), nil)
	require.ErrorIs(t, err, store.ErrUnsupported)
}

func TestRunInTransactionUndoesReset(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.RunInTransaction(ctx, []store.Op{clientOp("C1")}))

	err := s.RunInTransaction(ctx, []store.Op{
		{Statement: store.StmtResetGraph},
		clientOp("C2"),
		{Statement: store.Statement("nope")},
	})
	require.ErrorIs(t, err, store.ErrUnsupported)
	assert.Equal(t, 1, s.CountLabel(store.LabelClient))

	rows, err := s.RunQuery(ctx, store.StmtGetClient, map[string]any{"client_id": "C1"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWritesAfterRollbackStayConsistent(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.RunInTransaction(ctx, []store.Op{clientOp("C1")}))
	require.Error(t, s.RunInTransaction(ctx, []store.Op{clientOp("C2"), clientOp("C1")}))
	require.NoError(t, s.RunInTransaction(ctx, []store.Op{clientOp("C2")}))

	nodes, rels := s.Counts()
	assert.Equal(t, 4, nodes)
	assert.Equal(t, 2, rels)

	rows, err := s.RunQuery(ctx, store.StmtListClients, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
