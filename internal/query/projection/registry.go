package projection

import (
	"context"
	"database/sql"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zitadel/logging"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/instance"
)

// Factory builds a Handler scoped to one tenant; the registry calls it
// once per (projection, instance) pair it discovers.
type Factory func(instanceID string) *Handler

// Registry drives every registered projection's tick loop across every
// active tenant.
type Registry struct {
	db         *sql.DB
	es         *eventstore.Eventstore
	factories  []Factory
	maxTenants int
}

// NewRegistry builds a Registry. maxTenants bounds how many tenants a
// single tick round processes concurrently per projection, so a slow
// tenant never blocks another's checkpoint advance.
func NewRegistry(db *sql.DB, es *eventstore.Eventstore, factories ...Factory) *Registry {
	return &Registry{db: db, es: es, factories: factories, maxTenants: 16}
}

// Start runs every registered projection's tick loop, plus the instance
// cleanup loop, until ctx is cancelled. Each projection ticks on its own
// TickInterval, woken early whenever a subscription delivers a matching
// event (poll plus signal, with the checkpoint as the source of truth).
func (r *Registry) Start(ctx context.Context) {
	for _, factory := range r.factories {
		go r.runProjection(ctx, factory)
	}
	go r.runCleanup(ctx)
}

func (r *Registry) runProjection(ctx context.Context, factory Factory) {
	probe := factory("")
	sub := r.es.SubscribeEventTypes(eventTypesOf(probe))
	defer sub.Unsubscribe()

	ticker := time.NewTicker(probe.TickInterval)
	defer ticker.Stop()

	r.tickAllTenants(ctx, factory, probe.Name)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tickAllTenants(ctx, factory, probe.Name)
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
			r.tickAllTenants(ctx, factory, probe.Name)
		}
	}
}

// tickAllTenants runs one or more ticks per active tenant, in parallel up
// to maxTenants, draining each tenant's backlog before moving on so a
// tenant that just caught up doesn't wait a full TickInterval for the next
// batch. A tenant whose tick errors (a poison event) is logged
// and skipped for this round; it never blocks another tenant's progress.
func (r *Registry) tickAllTenants(ctx context.Context, factory Factory, name string) {
	instances, err := r.activeInstances(ctx)
	if err != nil {
		logging.WithFields("projection", name).WithError(err).Warn("projection: unable to list active instances")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxTenants)
	for _, instanceID := range instances {
		instanceID := instanceID
		g.Go(func() error {
			h := factory(instanceID)
			for {
				applied, err := h.Tick(gctx, r.db, r.es, instanceID)
				if err != nil {
					logging.WithFields("projection", h.Name, "instance_id", instanceID).WithError(err).Warn("projection tick failed")
					return nil
				}
				if uint64(applied) < h.BatchSize {
					return nil
				}
			}
		})
	}
	_ = g.Wait()
}

// runCleanup watches for instance.removed and, for each registered
// projection, deletes every row it owns for that instance via
// Handler.DeleteInstance.
func (r *Registry) runCleanup(ctx context.Context) {
	sub := r.es.SubscribeEventTypes(map[eventstore.AggregateType][]eventstore.EventType{
		instance.AggregateType: {instance.RemovedEventType},
	})
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			instanceID := e.Aggregate().ID
			for _, factory := range r.factories {
				h := factory(instanceID)
				if err := h.DeleteInstance(ctx, r.db, instanceID); err != nil {
					logging.WithFields("projection", h.Name, "instance_id", instanceID).WithError(err).Warn("projection cleanup failed")
				}
			}
		}
	}
}

// activeInstances lists every instance that has been added but not yet
// removed, scanning across all tenants (instanceID "" scopes nothing, the
// one place this module legitimately queries cross-tenant).
func (r *Registry) activeInstances(ctx context.Context) ([]string, error) {
	query := eventstore.NewSearchQueryBuilder("").OrderAsc()
	query.AddQuery().AggregateTypes(instance.AggregateType).EventTypes(instance.AddedEventType, instance.RemovedEventType)
	events, err := r.es.Filter(ctx, query)
	if err != nil {
		return nil, err
	}

	active := map[string]bool{}
	for _, e := range events {
		switch e.Type() {
		case instance.AddedEventType:
			active[e.Aggregate().ID] = true
		case instance.RemovedEventType:
			delete(active, e.Aggregate().ID)
		}
	}
	ids := make([]string, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	return ids, nil
}

func eventTypesOf(h *Handler) map[eventstore.AggregateType][]eventstore.EventType {
	out := make(map[eventstore.AggregateType][]eventstore.EventType, len(h.Reducers))
	for _, agg := range h.Reducers {
		types := make([]eventstore.EventType, 0, len(agg.EventReducers))
		for _, er := range agg.EventReducers {
			types = append(types, er.Event)
		}
		out[agg.Aggregate] = types
	}
	return out
}
