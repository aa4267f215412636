package projection

import (
	"context"
	"database/sql"
	"time"

	"github.com/zitadel/logging"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/metrics"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const (
	checkpointTable = "projections.projection_state"
	// defaultBatchSize matches the event store's own FilterToReducer batch
	// size; a projection tick never has to outrun the store's own paging.
	defaultBatchSize = 100
)

// EventReducer binds one event type to the function that turns it into a
// Statement.
type EventReducer struct {
	Event  eventstore.EventType
	Reduce func(eventstore.Event) (*Statement, error)
}

// AggregateReducer groups EventReducers under the aggregate type they
// apply to.
type AggregateReducer struct {
	Aggregate     eventstore.AggregateType
	EventReducers []EventReducer
}

// Handler is a single named projection: the tables it owns, the event
// types it consumes, its batch size and tick interval, and the reduce
// functions that turn events into statements.
type Handler struct {
	Name         string
	Tables       []string
	Reducers     []AggregateReducer
	BatchSize    uint64
	TickInterval time.Duration

	byEvent map[eventstore.AggregateType]map[eventstore.EventType]func(eventstore.Event) (*Statement, error)
	query   *eventstore.SearchQueryBuilder
}

// NewHandler builds a ready-to-run Handler. instanceID scopes every query
// and checkpoint row the handler issues; the registry runs one Handler
// instance per (projection, instance) pair, one transaction per tenant.
func NewHandler(name string, instanceID string, reducers []AggregateReducer, tables []string) *Handler {
	h := &Handler{
		Name:         name,
		Tables:       tables,
		Reducers:     reducers,
		BatchSize:    defaultBatchSize,
		TickInterval: 200 * time.Millisecond,
		byEvent:      map[eventstore.AggregateType]map[eventstore.EventType]func(eventstore.Event) (*Statement, error){},
	}

	query := eventstore.NewSearchQueryBuilder(instanceID).OrderAsc()
	for _, agg := range reducers {
		types := make([]eventstore.EventType, 0, len(agg.EventReducers))
		byType := map[eventstore.EventType]func(eventstore.Event) (*Statement, error){}
		for _, er := range agg.EventReducers {
			types = append(types, er.Event)
			byType[er.Event] = er.Reduce
		}
		h.byEvent[agg.Aggregate] = byType
		query.AddQuery().AggregateTypes(agg.Aggregate).EventTypes(types...)
	}
	h.query = query
	return h
}

func (h *Handler) reducerFor(e eventstore.Event) (func(eventstore.Event) (*Statement, error), bool) {
	byType, ok := h.byEvent[e.Aggregate().Type]
	if !ok {
		return nil, false
	}
	reduce, ok := byType[e.Type()]
	return reduce, ok
}

// checkpoint reads the last processed position for this handler's instance.
func (h *Handler) checkpoint(ctx context.Context, tx *sql.Tx, instanceID string) (float64, error) {
	var pos sql.NullFloat64
	err := tx.QueryRowContext(ctx,
		`SELECT last_position FROM `+checkpointTable+` WHERE projection_name = $1 AND instance_id = $2`,
		h.Name, instanceID,
	).Scan(&pos)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, zerrors.ThrowInternal(err, "PROJ-c9s1a", "unable to read checkpoint")
	}
	return pos.Float64, nil
}

func (h *Handler) advanceCheckpoint(ctx context.Context, tx *sql.Tx, instanceID string, position float64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO `+checkpointTable+` (projection_name, instance_id, last_position, last_tick_at)
		VALUES ($1, $2, $3, statement_timestamp())
		ON CONFLICT (projection_name, instance_id)
		DO UPDATE SET last_position = excluded.last_position, last_tick_at = excluded.last_tick_at`,
		h.Name, instanceID, position,
	)
	if err != nil {
		return zerrors.ThrowInternal(err, "PROJ-c9s1b", "unable to advance checkpoint")
	}
	return nil
}

// Tick runs one checkpoint-bounded batch: load checkpoint, fetch up to
// BatchSize events after it, reduce+execute each inside one transaction,
// advance the checkpoint, commit. It reports how many
// events were applied so the caller can decide whether to tick again
// immediately (a full batch means more work is very likely still pending).
func (h *Handler) Tick(ctx context.Context, db *sql.DB, es *eventstore.Eventstore, instanceID string) (int, error) {
	applied := 0
	var processed float64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		position, err := h.checkpoint(ctx, tx, instanceID)
		if err != nil {
			return err
		}
		processed = position

		query := h.query.Clone().Limit(h.BatchSize)
		for _, q := range query.Queries() {
			q.PositionAfter(position)
		}
		events, err := es.Filter(ctx, query)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		if uint64(len(events)) == h.BatchSize {
			// A full batch may have cut a transaction in half: events of one
			// push share a position, and the checkpoint must never advance
			// past a position that is only partially applied. Trim the
			// trailing position; the next tick re-fetches it whole.
			cut := len(events)
			lastPos := events[len(events)-1].Position()
			for cut > 0 && events[cut-1].Position() == lastPos {
				cut--
			}
			if cut > 0 {
				events = events[:cut]
			}
		}

		last := position
		for _, e := range events {
			reduce, ok := h.reducerFor(e)
			if !ok {
				continue
			}
			stmt, err := reduce(e)
			if err != nil {
				metrics.ProjectionTickErrors.WithLabelValues(h.Name).Inc()
				return err
			}
			if err := stmt.Execute(ctx, tx); err != nil {
				metrics.ProjectionTickErrors.WithLabelValues(h.Name).Inc()
				return zerrors.ThrowInternal(err, "PROJ-u0s9f", "unable to apply projection statement")
			}
			if e.Position() > last {
				last = e.Position()
			}
		}
		applied = len(events)
		processed = last
		return h.advanceCheckpoint(ctx, tx, instanceID, last)
	})
	if err != nil {
		return 0, err
	}

	latest, latestErr := es.LatestPosition(ctx, eventstore.NewSearchQueryBuilder(instanceID))
	if latestErr == nil {
		metrics.ProjectionCheckpointLag.WithLabelValues(h.Name, instanceID).Set(lag(latest, processed))
	}
	return applied, nil
}

// lag reports how far the checkpoint trails the instance's latest position,
// never negative.
func lag(latest, processed float64) float64 {
	if latest > processed {
		return latest - processed
	}
	return 0
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zerrors.ThrowInternal(err, "PROJ-b39as", "unable to begin projection tx")
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.WithFields("projection-rollback-error", rbErr).Warn("unable to roll back projection tx")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return zerrors.ThrowInternal(err, "PROJ-b39at", "unable to commit projection tx")
	}
	return nil
}

// DeleteInstance removes every row this handler owns for instanceID, the
// cleanup every participating projection performs on instance.removed.
func (h *Handler) DeleteInstance(ctx context.Context, db *sql.DB, instanceID string) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		for _, table := range h.Tables {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE instance_id = $1`, instanceID); err != nil {
				return zerrors.ThrowInternal(err, "PROJ-d9s1c", "unable to delete instance rows")
			}
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM `+checkpointTable+` WHERE projection_name = $1 AND instance_id = $2`, h.Name, instanceID)
		if err != nil {
			return zerrors.ThrowInternal(err, "PROJ-d9s1d", "unable to delete checkpoint row")
		}
		return nil
	})
}
