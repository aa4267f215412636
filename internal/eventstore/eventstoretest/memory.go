// Package eventstoretest provides an in-memory eventstore.Repository used by
// the command, write-model and projection-engine test suites so they can
// exercise the store's core guarantees (contiguous versions, concurrency
// conflicts, unique-constraint lifecycle, replay = live equivalence)
// without a real CockroachDB/Postgres instance. It implements the exact
// semantics internal/eventstore/repository/sql.CRDB implements against SQL:
// a row lock per aggregate during Push, a monotone per-instance position
// counter, and a unique_constraints table keyed the same way.
package eventstoretest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

type storedEvent struct {
	eventstore.BaseEvent
}

func (e *storedEvent) Payload() any { return json.RawMessage(e.Data) }

type uniqueKey struct {
	instanceID string
	typ        string
	value      string
}

// Repository is a goroutine-safe, in-process eventstore.Repository. The
// zero value is ready to use.
type Repository struct {
	mu sync.Mutex

	events   []*storedEvent
	versions map[string]uint64 // instance|type|id -> highest assigned version
	unique   map[uniqueKey]string
	position float64
}

func New() *Repository {
	return &Repository{
		versions: map[string]uint64{},
		unique:   map[uniqueKey]string{},
	}
}

func aggKey(a *eventstore.Aggregate) string {
	return a.InstanceID + "|" + string(a.Type) + "|" + a.ID
}

// Push mirrors internal/eventstore/repository/sql.CRDB.Push: one logical
// position per call, contiguous per-aggregate versions, unique-constraint
// intents applied in command order, the whole batch atomic (it either all
// lands or nothing does, modeled here by validating everything before any
// mutation is committed to the store's maps).
func (r *Repository) Push(ctx context.Context, commands ...eventstore.Command) ([]eventstore.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.position++
	position := r.position

	newVersions := map[string]uint64{}
	events := make([]*storedEvent, len(commands))

	for i, cmd := range commands {
		agg := cmd.Aggregate()
		key := aggKey(agg)
		version, ok := newVersions[key]
		if !ok {
			version = r.versions[key]
		}
		if required := cmd.RequiredSequence(); required != 0 && required != version {
			return nil, zerrors.ThrowConcurrencyConflict(nil, "MEM-c0n1f", "Errors.Internal.ConcurrencyConflict")
		}
		version++
		newVersions[key] = version

		var payload []byte
		if cmd.Payload() != nil {
			var err error
			payload, err = json.Marshal(cmd.Payload())
			if err != nil {
				return nil, zerrors.ThrowInternal(err, "MEM-m9a1b", "unable to marshal payload")
			}
		}
		if strings.ContainsRune(string(payload), 0) {
			return nil, zerrors.ThrowInvalidArgument(nil, "MEM-nu11b", "Errors.Internal.NullByteInPayload")
		}

		persisted := *agg
		persisted.Version = version
		events[i] = &storedEvent{eventstore.BaseEvent{
			EventType:  cmd.Type(),
			Agg:        &persisted,
			CreatorID:  cmd.Creator(),
			CreatedAtV: time.Now().UTC(),
			SequenceV:  version,
			PositionV:  position,
			InTxOrderV: uint32(i),
			RequiredV:  cmd.RequiredSequence(),
			Data:       payload,
		}}
	}

	if err := r.applyUniqueConstraints(commands); err != nil {
		return nil, err
	}
	for key, version := range newVersions {
		r.versions[key] = version
	}
	out := make([]eventstore.Event, len(events))
	for i, e := range events {
		r.events = append(r.events, e)
		out[i] = e
	}
	return out, nil
}

// globalConstraintInstanceID matches the sentinel the SQL adapter uses, so
// the same constraint-type/value collides across instances only when a
// command actually declared it IsGlobal.
const globalConstraintInstanceID = "system"

// applyUniqueConstraints validates every intent in the batch against a
// scratch copy of r.unique first, then commits all of them only once none
// fail, so a later command's violation never leaves an earlier command's
// constraint added (the batch is all-or-nothing, matching Push's own
// contiguous-version rollback-by-not-committing behavior).
func (r *Repository) applyUniqueConstraints(commands []eventstore.Command) error {
	scratch := make(map[uniqueKey]string, len(r.unique))
	for k, v := range r.unique {
		scratch[k] = v
	}

	for _, cmd := range commands {
		agg := cmd.Aggregate()
		for _, uc := range cmd.UniqueConstraints() {
			if uc == nil {
				continue
			}
			instanceID := agg.InstanceID
			if uc.IsGlobal {
				instanceID = globalConstraintInstanceID
			}
			key := uniqueKey{instanceID: instanceID, typ: uc.UniqueType, value: strings.ToLower(uc.UniqueField)}
			switch uc.Action {
			case eventstore.UniqueConstraintAdd:
				if _, exists := scratch[key]; exists {
					return zerrors.ThrowUniqueConstraintViolation(nil, "MEM-u5n1q", uc.ErrorMessage)
				}
				scratch[key] = uc.ErrorMessage
			case eventstore.UniqueConstraintRemove:
				delete(scratch, key)
			case eventstore.UniqueConstraintInstanceRemove:
				for k := range scratch {
					if k.instanceID == agg.InstanceID {
						delete(scratch, k)
					}
				}
			}
		}
	}

	r.unique = scratch
	return nil
}

// Filter mirrors CRDB.Filter: evaluate the builder's predicate in memory,
// then sort by (position, in_tx_order) ascending/descending and apply the
// limit.
func (r *Repository) Filter(ctx context.Context, query *eventstore.SearchQueryBuilder) ([]eventstore.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []eventstore.Event
	for _, e := range r.events {
		if query.Matches(e) {
			matched = append(matched, e)
		}
	}
	sortEvents(matched, query.Desc())
	if limit := query.GetLimit(); limit > 0 && uint64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *Repository) LatestPosition(ctx context.Context, query *eventstore.SearchQueryBuilder) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest float64
	for _, e := range r.events {
		if query.Matches(e) && e.Position() > latest {
			latest = e.Position()
		}
	}
	return latest, nil
}

func (r *Repository) Health(ctx context.Context) error { return nil }

func sortEvents(events []eventstore.Event, desc bool) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Position() != events[j].Position() {
			if desc {
				return events[i].Position() > events[j].Position()
			}
			return events[i].Position() < events[j].Position()
		}
		if desc {
			return events[i].InTxOrder() > events[j].InTxOrder()
		}
		return events[i].InTxOrder() < events[j].InTxOrder()
	})
}
