package projection

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore/eventstoretest"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
)

// TestHandler_Tick_UpsertsOrgRow covers one tick: a fresh
// org.added event produces an upsert against the checkpoint-bounded batch,
// then the checkpoint advances in the same transaction.
func TestHandler_Tick_UpsertsOrgRow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	es := eventstore.New(eventstoretest.New())
	org.RegisterMappers(es)

	aggregate := &eventstore.Aggregate{ID: "org1", Type: org.AggregateType, InstanceID: "i1", ResourceOwner: "org1"}
	_, err = es.Push(context.Background(), org.NewAddedEvent(context.Background(), aggregate, "Acme"))
	require.NoError(t, err)

	h := NewOrgProjection("i1")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT last_position FROM projections\.projection_state`).
		WithArgs("orgs", "i1").
		WillReturnRows(sqlmock.NewRows([]string{"last_position"}))
	mock.ExpectExec(`INSERT INTO projections\.orgs`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO projections\.projection_state`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	applied, err := h.Tick(context.Background(), db, es, "i1")
	require.NoError(t, err)
	require.Equal(t, 1, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestHandler_Tick_NoNewEventsIsANoop covers idempotence: a tick with no
// events after the checkpoint touches nothing but the checkpoint read.
func TestHandler_Tick_NoNewEventsIsANoop(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	es := eventstore.New(eventstoretest.New())
	org.RegisterMappers(es)

	h := NewOrgProjection("i1")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT last_position FROM projections\.projection_state`).
		WithArgs("orgs", "i1").
		WillReturnRows(sqlmock.NewRows([]string{"last_position"}))
	mock.ExpectCommit()

	applied, err := h.Tick(context.Background(), db, es, "i1")
	require.NoError(t, err)
	require.Equal(t, 0, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestHandler_DeleteInstance_DeletesOwnedTablesAndCheckpoint covers the
// instance cleanup path.
func TestHandler_DeleteInstance_DeletesOwnedTablesAndCheckpoint(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	h := NewOrgProjection("i1")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM projections\.orgs WHERE instance_id = \$1`).
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM projections\.org_domains WHERE instance_id = \$1`).
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM projections\.projection_state WHERE projection_name = \$1 AND instance_id = \$2`).
		WithArgs("orgs", "i1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, h.DeleteInstance(context.Background(), db, "i1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
