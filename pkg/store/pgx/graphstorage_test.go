package pgx

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/OFFIS-RIT/dunning/backend/pkg/store"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *GraphDBStorage) {
	t.Helper()
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewGraphDBStorageWithConnection(mockPool)
}

func TestTestConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("reports true when ping and probe succeed", func(t *testing.T) {
		mockPool, s := newMock(t)
		mockPool.ExpectPing()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT 1 AS ok")).
			WillReturnRows(pgxmock.NewRows([]string{"ok"}).AddRow(int32(1)))

		assert.True(t, s.TestConnection(ctx))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("reports false instead of failing", func(t *testing.T) {
		mockPool, s := newMock(t)
		mockPool.ExpectPing().WillReturnError(errors.New("database unavailable"))

		assert.False(t, s.TestConnection(ctx))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRunQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("returns rows keyed by column", func(t *testing.T) {
		mockPool, s := newMock(t)
		rows := pgxmock.NewRows([]string{"id", "name", "department"}).
			AddRow("A1", "Agent A1", "Collections").
			AddRow("A2", "Agent A2", "Collections")
		mockPool.ExpectQuery(regexp.QuoteMeta("FROM graph_nodes a")).WillReturnRows(rows)

		records, err := s.RunQuery(ctx, store.StmtListAgents, nil)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "A1", records[0].String("id"))
		assert.Equal(t, "Agent A2", records[1].String("name"))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("constraint statements are unsupported", func(t *testing.T) {
		_, s := newMock(t)
		_, err := s.RunQuery(ctx, store.StmtConstraintClient, nil)
		assert.ErrorIs(t, err, store.ErrUnsupported)
		_, err = s.RunQuery(ctx, store.StmtDropConstraints, nil)
		assert.ErrorIs(t, err, store.ErrUnsupported)
	})

	t.Run("propagates query errors", func(t *testing.T) {
		mockPool, s := newMock(t)
		queryErr := errors.New("syntax error")
		mockPool.ExpectQuery(regexp.QuoteMeta("TRUNCATE graph_edges, graph_nodes")).WillReturnError(queryErr)

		_, err := s.RunQuery(ctx, store.StmtResetGraph, nil)
		assert.ErrorIs(t, err, queryErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRunInTransaction(t *testing.T) {
	ctx := context.Background()
	ops := []store.Op{
		{
			Statement: store.StmtCreateInteraction,
			Params:    map[string]any{"client_id": "C001", "id": "I001", "props": map[string]any{"contact_type": "sms"}},
			Expect:    1,
		},
		{
			Statement: store.StmtLinkAgent,
			Params:    map[string]any{"interaction_id": "I001", "agent_id": "A1"},
		},
	}

	t.Run("commits when every op succeeds", func(t *testing.T) {
		mockPool, s := newMock(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("'PARTICIPATES_IN', 'Interaction'")).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("I001"))
		mockPool.ExpectQuery(regexp.QuoteMeta("'PERFORMED_BY', 'Agent'")).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("I001"))
		mockPool.ExpectCommit()

		require.NoError(t, s.RunInTransaction(ctx, ops))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("rolls back when the client does not exist", func(t *testing.T) {
		mockPool, s := newMock(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("'PARTICIPATES_IN', 'Interaction'")).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))
		mockPool.ExpectRollback()

		err := s.RunInTransaction(ctx, ops)
		assert.ErrorIs(t, err, store.ErrExpectationFailed)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("rolls back on statement failure", func(t *testing.T) {
		mockPool, s := newMock(t)
		dupErr := errors.New("duplicate key value violates unique constraint")
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("'PARTICIPATES_IN', 'Interaction'")).WillReturnError(dupErr)
		mockPool.ExpectRollback()

		err := s.RunInTransaction(ctx, ops)
		assert.ErrorIs(t, err, dupErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestCatalogDerivedReads(t *testing.T) {
	c := Catalog()

	q := c[store.StmtClientPayments]
	assert.Contains(t, q, "e.rel_type = 'GENERATED_PAYMENT'")
	assert.Contains(t, q, "n.props -> 'is_complete' AS is_complete")
	assert.Contains(t, q, "ci.src_id = @client_id::text")

	q = c[store.StmtAllRenegotiations]
	assert.Contains(t, q, "n.label = 'Renegotiation'")
	assert.NotContains(t, q, "@client_id")
}
