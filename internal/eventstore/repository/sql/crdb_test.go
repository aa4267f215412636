package sql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/database"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

func newTestCRDB(t *testing.T) (*CRDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCRDB(&database.DB{DB: db}), mock
}

type testCommand struct {
	agg        *eventstore.Aggregate
	typ        eventstore.EventType
	payload    any
	creator    string
	required   uint64
	uniqueCons []*eventstore.UniqueConstraint
}

func (c *testCommand) Aggregate() *eventstore.Aggregate                  { return c.agg }
func (c *testCommand) Type() eventstore.EventType                        { return c.typ }
func (c *testCommand) Payload() any                                      { return c.payload }
func (c *testCommand) Creator() string                                   { return c.creator }
func (c *testCommand) RequiredSequence() uint64                          { return c.required }
func (c *testCommand) UniqueConstraints() []*eventstore.UniqueConstraint { return c.uniqueCons }

// crdb.ExecuteTx wraps the body in a "SAVEPOINT cockroach_restart" /
// "RELEASE SAVEPOINT cockroach_restart" pair (rolled back to on a retryable
// 40001, released on success), so every Push expectation set below mirrors
// that dance rather than a bare Begin/Commit.

func TestCRDB_Push_AssignsContiguousVersion(t *testing.T) {
	crdb, mock := newTestCRDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SAVEPOINT cockroach_restart`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXTRACT\(EPOCH FROM statement_timestamp\(\)\)`).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(100.0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(aggregate_version\), 0\)`).
		WithArgs("instance1", eventstore.AggregateType("org"), "org1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO eventstore.events`).
		WithArgs("instance1", eventstore.AggregateType("org"), "org1", uint64(1),
			eventstore.EventType("org.added"), sqlmock.AnyArg(), "", "system", 100.0, 0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Unix(0, 0)))
	mock.ExpectExec(`RELEASE SAVEPOINT cockroach_restart`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	cmd := &testCommand{
		agg:     &eventstore.Aggregate{ID: "org1", Type: "org", InstanceID: "instance1"},
		typ:     "org.added",
		creator: "system",
	}

	events, err := crdb.Push(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, uint64(1), events[0].Sequence())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCRDB_Push_ConcurrencyConflict(t *testing.T) {
	crdb, mock := newTestCRDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SAVEPOINT cockroach_restart`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXTRACT\(EPOCH FROM statement_timestamp\(\)\)`).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(100.0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(aggregate_version\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
	mock.ExpectRollback()

	cmd := &testCommand{
		agg:      &eventstore.Aggregate{ID: "org1", Type: "org", InstanceID: "instance1"},
		typ:      "org.deactivated",
		creator:  "system",
		required: 1, // stale: store already has version 2
	}

	_, err := crdb.Push(context.Background(), cmd)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCRDB_Push_UniqueConstraintViolation(t *testing.T) {
	crdb, mock := newTestCRDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SAVEPOINT cockroach_restart`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXTRACT\(EPOCH FROM statement_timestamp\(\)\)`).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(100.0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(aggregate_version\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO eventstore.events`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Unix(0, 0)))
	mock.ExpectExec(`INSERT INTO eventstore.unique_constraints`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
	mock.ExpectRollback()

	cmd := &testCommand{
		agg:     &eventstore.Aggregate{ID: "user1", Type: "user", InstanceID: "instance1"},
		typ:     "user.human.added",
		creator: "system",
		uniqueCons: []*eventstore.UniqueConstraint{
			eventstore.NewAddUniqueConstraint("username", "john", "Errors.User.AlreadyExists"),
		},
	}

	_, err := crdb.Push(context.Background(), cmd)
	require.Error(t, err)
	require.True(t, zerrors.IsUniqueConstraintViolation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
