// Package sql is the storage adapter: relational I/O for the events table,
// the unique_constraints table and per-aggregate version/position
// assignment, implementing the multi-command Push plus Filter,
// LatestPosition and Health the eventstore.Repository interface needs.
package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cockroachdb/cockroach-go/v2/crdb"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/zitadel/logging"

	"github.com/zitadel/zitadel-eventstore-core/internal/database"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const (
	// previousVersionQuery computes, per aggregate instance in this command batch,
	// the current max version under a row lock so concurrent appenders to
	// the same aggregate serialize. Kept as one query per command rather
	// than one big multi-row statement, so RequiredSequence can be checked
	// per-command before the INSERT runs.
	previousVersionQuery = `SELECT COALESCE(MAX(aggregate_version), 0) FROM eventstore.events
		WHERE instance_id = $1 AND aggregate_type = $2 AND aggregate_id = $3
		FOR UPDATE`

	insertEvent = `INSERT INTO eventstore.events (
			instance_id, aggregate_type, aggregate_id, aggregate_version,
			event_type, payload, owner, creator, created_at, position, in_tx_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, statement_timestamp(), $9, $10)
		RETURNING created_at`

	nextPositionQuery = `SELECT EXTRACT(EPOCH FROM statement_timestamp())`

	uniqueInsert = `INSERT INTO eventstore.unique_constraints
		(instance_id, constraint_type, value, error_message) VALUES ($1, $2, $3, $4)`

	uniqueDelete = `DELETE FROM eventstore.unique_constraints
		WHERE instance_id = $1 AND constraint_type = $2 AND value = $3`

	uniqueDeleteGlobal = `DELETE FROM eventstore.unique_constraints
		WHERE constraint_type = $1 AND value = $2 AND instance_id = $3`

	uniqueDeleteInstance = `DELETE FROM eventstore.unique_constraints WHERE instance_id = $1`

	globalConstraintInstanceID = "system"
)

// CRDB is the storage adapter. CRDB-first, but it also accepts plain
// Postgres DSNs (wire-compatible for this schema).
type CRDB struct {
	*database.DB
}

func NewCRDB(client *database.DB) *CRDB {
	return &CRDB{client}
}

func (db *CRDB) Health(ctx context.Context) error { return db.PingContext(ctx) }

// genEvent is the concrete eventstore.Event the adapter produces when
// reading rows back; it embeds BaseEvent the same way every per-aggregate
// event in internal/repository/* does, so a generic Filter result can still
// be passed through a registered EventMapper.
type genEvent struct {
	eventstore.BaseEvent
}

func (e *genEvent) Payload() any { return json.RawMessage(e.Data) }

// Push adds all commands to the eventstreams of their aggregates. The
// whole call is transactional: one failing command (concurrency conflict,
// unique-constraint clash, or a lower-level storage error) rolls back every
// event in the batch.
func (db *CRDB) Push(ctx context.Context, commands ...eventstore.Command) ([]eventstore.Event, error) {
	events := make([]eventstore.Event, len(commands))

	err := crdb.ExecuteTx(ctx, db.DB.DB, nil, func(tx *sql.Tx) error {
		var uniqueConstraints []scopedUniqueConstraint
		versions := map[string]uint64{} // aggregate key -> version already assigned in this tx

		var txPosition float64
		if err := tx.QueryRowContext(ctx, nextPositionQuery).Scan(&txPosition); err != nil {
			return zerrors.ThrowInternal(err, "SQL-1gQ3r", "unable to assign position")
		}

		for i, command := range commands {
			agg := command.Aggregate()
			key := agg.InstanceID + "|" + string(agg.Type) + "|" + agg.ID

			version, ok := versions[key]
			if !ok {
				if err := tx.QueryRowContext(ctx, previousVersionQuery, agg.InstanceID, agg.Type, agg.ID).Scan(&version); err != nil {
					return zerrors.ThrowInternal(err, "SQL-bh0sa", "unable to read current aggregate version")
				}
			}

			if required := command.RequiredSequence(); required != 0 && required != version {
				return zerrors.ThrowConcurrencyConflict(nil, "SQL-GBr42", "Errors.Internal.ConcurrencyConflict")
			}
			version++
			versions[key] = version

			var payload []byte
			if command.Payload() != nil {
				var err error
				payload, err = json.Marshal(command.Payload())
				if err != nil {
					return zerrors.ThrowInternal(err, "SQL-6n9sc", "unable to marshal payload")
				}
			}
			if strings.ContainsRune(string(payload), 0) {
				return zerrors.ThrowInvalidArgument(nil, "SQL-vVupq", "Errors.Internal.NullByteInPayload")
			}

			var createdAt time.Time
			err := tx.QueryRowContext(ctx, insertEvent,
				agg.InstanceID, agg.Type, agg.ID, version,
				command.Type(), payload, agg.ResourceOwner, command.Creator(),
				txPosition, i,
			).Scan(&createdAt)
			if err != nil {
				logging.WithFields(
					"aggregateType", agg.Type,
					"aggregateId", agg.ID,
					"eventType", command.Type(),
					"instanceID", agg.InstanceID,
				).WithError(err).Debug("insert event failed")
				return zerrors.ThrowInternal(err, "SQL-SBP37", "unable to create event")
			}

			persistedAgg := *agg
			persistedAgg.Version = version
			events[i] = &genEvent{eventstore.BaseEvent{
				EventType:  command.Type(),
				Agg:        &persistedAgg,
				CreatorID:  command.Creator(),
				CreatedAtV: createdAt,
				SequenceV:  version,
				PositionV:  txPosition,
				InTxOrderV: uint32(i),
				RequiredV:  command.RequiredSequence(),
				Data:       payload,
			}}

			for _, uc := range command.UniqueConstraints() {
				uniqueConstraints = append(uniqueConstraints, scopedUniqueConstraint{instanceID: agg.InstanceID, constraint: uc})
			}
		}

		return db.handleUniqueConstraints(ctx, tx, uniqueConstraints...)
	})
	if err != nil {
		var caos *zerrors.CaosError
		if errors.As(err, &caos) {
			return nil, err
		}
		return nil, zerrors.ThrowInternal(err, "SQL-DjgtG", "unable to store events")
	}

	return events, nil
}

// scopedUniqueConstraint pairs a unique-constraint intent with the instance
// of the command that declared it, so a non-global constraint is always
// scoped to its own aggregate's tenant (the same username is free to
// reuse on a different instance) rather than to an ambient context
// value that every command in a batch would otherwise have to agree on.
type scopedUniqueConstraint struct {
	instanceID string
	constraint *eventstore.UniqueConstraint
}

// handleUniqueConstraints applies unique-constraint intents in command
// order: add inserts, conflict raises UniqueConstraintViolation carrying
// the caller-supplied error message and rolls the whole transaction back;
// remove deletes the matching row, a missing row is not an error.
func (db *CRDB) handleUniqueConstraints(ctx context.Context, tx *sql.Tx, uniqueConstraints ...scopedUniqueConstraint) error {
	for _, scoped := range uniqueConstraints {
		uc := scoped.constraint
		if uc == nil {
			continue
		}
		field := strings.ToLower(uc.UniqueField)
		switch uc.Action {
		case eventstore.UniqueConstraintAdd:
			instanceID := scoped.instanceID
			if uc.IsGlobal {
				instanceID = globalConstraintInstanceID
			}
			_, err := tx.ExecContext(ctx, uniqueInsert, instanceID, uc.UniqueType, field, uc.ErrorMessage)
			if err != nil {
				if db.isUniqueViolationError(err) {
					return zerrors.ThrowUniqueConstraintViolation(err, "SQL-M0dsf", uc.ErrorMessage)
				}
				return zerrors.ThrowInternal(err, "SQL-dM9ds", "unable to create unique constraint")
			}
		case eventstore.UniqueConstraintRemove:
			var err error
			if uc.IsGlobal {
				_, err = tx.ExecContext(ctx, uniqueDeleteGlobal, uc.UniqueType, field, globalConstraintInstanceID)
			} else {
				_, err = tx.ExecContext(ctx, uniqueDelete, scoped.instanceID, uc.UniqueType, field)
			}
			if err != nil {
				return zerrors.ThrowInternal(err, "SQL-6n88i", "unable to remove unique constraint")
			}
		case eventstore.UniqueConstraintInstanceRemove:
			if _, err := tx.ExecContext(ctx, uniqueDeleteInstance, scoped.instanceID); err != nil {
				return zerrors.ThrowInternal(err, "SQL-6n88j", "unable to remove unique constraints of instance")
			}
		}
	}
	return nil
}

// Filter returns all events matching the given search query, ordered by
// (position, in_tx_order) ascending or descending.
func (db *CRDB) Filter(ctx context.Context, searchQuery *eventstore.SearchQueryBuilder) ([]eventstore.Event, error) {
	stmt, args, err := buildFilterQuery(searchQuery)
	if err != nil {
		return nil, zerrors.ThrowInternal(err, "SQL-3n9sc", "unable to build query")
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, zerrors.ThrowInternal(err, "SQL-ZVjj5", "unable to filter events")
	}
	defer rows.Close()

	events := make([]eventstore.Event, 0, searchQuery.GetLimit())
	for rows.Next() {
		var (
			aggregateID, resourceOwner, instanceID, aggregateType, eventType, creator string
			version                                                                   uint64
			payload                                                                   []byte
			createdAt                                                                 time.Time
			position                                                                  float64
			inTxOrder                                                                 uint32
		)
		if err := rows.Scan(
			&aggregateID, &resourceOwner, &instanceID, &version,
			&aggregateType, &eventType, &payload, &creator, &createdAt,
			&position, &inTxOrder,
		); err != nil {
			return nil, zerrors.ThrowInternal(err, "SQL-oNySO", "unable to scan event")
		}
		events = append(events, &genEvent{eventstore.BaseEvent{
			EventType: eventstore.EventType(eventType),
			Agg: &eventstore.Aggregate{
				ID:            aggregateID,
				Type:          eventstore.AggregateType(aggregateType),
				ResourceOwner: resourceOwner,
				InstanceID:    instanceID,
				Version:       version,
			},
			CreatorID:  creator,
			CreatedAtV: createdAt,
			SequenceV:  version,
			PositionV:  position,
			InTxOrderV: inTxOrder,
			Data:       payload,
		}})
	}
	if err := rows.Err(); err != nil {
		return nil, zerrors.ThrowInternal(err, "SQL-Nsl4f", "unable to iterate events")
	}
	return events, nil
}

// LatestPosition returns the position of the last event matching query, or
// zero if none.
func (db *CRDB) LatestPosition(ctx context.Context, searchQuery *eventstore.SearchQueryBuilder) (float64, error) {
	stmt, args, err := buildMaxPositionQuery(searchQuery)
	if err != nil {
		return 0, zerrors.ThrowInternal(err, "SQL-8nslc", "unable to build query")
	}
	var pos sql.NullFloat64
	if err := db.QueryRowContext(ctx, stmt, args...).Scan(&pos); err != nil {
		return 0, zerrors.ThrowInternal(err, "SQL-19sEe", "unable to read latest position")
	}
	return pos.Float64, nil
}

func (db *CRDB) isUniqueViolationError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == "23505" {
		return true
	}
	return false
}

func buildFilterQuery(q *eventstore.SearchQueryBuilder) (string, []any, error) {
	builder := sq.Select(
		"aggregate_id", "owner", "instance_id", "aggregate_version",
		"aggregate_type", "event_type", "payload", "creator", "created_at",
		"position", "in_tx_order",
	).From("eventstore.events").PlaceholderFormat(sq.Dollar)

	builder = applyPredicate(builder, q)

	if q.Desc() {
		builder = builder.OrderBy("position DESC", "in_tx_order DESC")
	} else {
		builder = builder.OrderBy("position ASC", "in_tx_order ASC")
	}
	if q.GetLimit() > 0 {
		builder = builder.Limit(q.GetLimit())
	}
	return builder.ToSql()
}

func buildMaxPositionQuery(q *eventstore.SearchQueryBuilder) (string, []any, error) {
	builder := sq.Select("MAX(position)").From("eventstore.events").PlaceholderFormat(sq.Dollar)
	builder = applyPredicate(builder, q)
	return builder.ToSql()
}

// applyPredicate translates the builder's OR-of-ANDs predicate
// (eventstore.SearchQueryBuilder.Matches documents the exact semantics)
// into a WHERE clause, instance-scoped whenever an instance id is set.
func applyPredicate(builder sq.SelectBuilder, q *eventstore.SearchQueryBuilder) sq.SelectBuilder {
	var or sq.Or
	for _, branch := range q.Queries() {
		and := sq.And{}
		if q.InstanceID() != "" {
			and = append(and, sq.Eq{"instance_id": q.InstanceID()})
		}
		if v := branch.ExportAggregateTypes(); len(v) > 0 {
			and = append(and, sq.Eq{"aggregate_type": v})
		}
		if v := branch.ExportAggregateIDs(); len(v) > 0 {
			and = append(and, sq.Eq{"aggregate_id": v})
		}
		if v := branch.ExportEventTypes(); len(v) > 0 {
			and = append(and, sq.Eq{"event_type": v})
		}
		if v := branch.ExportResourceOwner(); v != "" {
			and = append(and, sq.Eq{"owner": v})
		}
		if v := branch.ExportExcludeAggregateTypes(); len(v) > 0 {
			and = append(and, sq.NotEq{"aggregate_type": v})
		}
		if v := branch.ExportExcludeAggregateIDs(); len(v) > 0 {
			and = append(and, sq.NotEq{"aggregate_id": v})
		}
		if v := branch.ExportExcludeEventTypes(); len(v) > 0 {
			and = append(and, sq.NotEq{"event_type": v})
		}
		if v := branch.ExportPositionAfter(); v != nil {
			and = append(and, sq.Gt{"position": *v})
		}
		if v := branch.ExportPositionBefore(); v != nil {
			and = append(and, sq.Lt{"position": *v})
		}
		if pos, ok := branch.ExportAfterCursor(); ok {
			and = append(and, sq.Or{
				sq.Gt{"position": pos.Position},
				sq.And{
					sq.Eq{"position": pos.Position},
					sq.Gt{"in_tx_order": pos.InTxOrder},
				},
			})
		}
		or = append(or, and)
	}
	return builder.Where(or)
}
