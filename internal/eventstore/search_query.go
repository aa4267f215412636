package eventstore

// SearchQueryBuilder assembles the filter predicate for Filter,
// FilterToReducer, LatestPosition and EventsAfterPosition. Positive sets
// are ANDed by membership; exclusions are ANDed-not; multiple top-level
// queries on one builder are ORed.
type SearchQueryBuilder struct {
	instanceID string
	limit      uint64
	desc       bool
	queries    []*SearchQuery
}

// SearchQuery is one OR-branch of the builder's predicate.
type SearchQuery struct {
	aggregateTypes        []AggregateType
	aggregateIDs          []string
	eventTypes            []EventType
	resourceOwner         string
	excludeAggregateTypes []AggregateType
	excludeAggregateIDs   []string
	excludeEventTypes     []EventType
	positionAfter         *float64
	positionBefore        *float64
	afterCursorPos        *float64
	afterCursorTxOrder    uint32
}

func NewSearchQueryBuilder(instanceID string) *SearchQueryBuilder {
	return &SearchQueryBuilder{instanceID: instanceID, limit: 0}
}

func (b *SearchQueryBuilder) InstanceID() string { return b.instanceID }
func (b *SearchQueryBuilder) GetLimit() uint64   { return b.limit }
func (b *SearchQueryBuilder) Desc() bool         { return b.desc }
func (b *SearchQueryBuilder) Queries() []*SearchQuery {
	// A builder without an explicit branch matches everything in its
	// instance. The default branch is materialized, not synthesized per
	// call, so cursor mutations by FilterToReducer and
	// EventsAfterPosition stick.
	if len(b.queries) == 0 {
		b.queries = []*SearchQuery{{}}
	}
	return b.queries
}

func (b *SearchQueryBuilder) Limit(limit uint64) *SearchQueryBuilder {
	b.limit = limit
	return b
}

func (b *SearchQueryBuilder) OrderDesc() *SearchQueryBuilder {
	b.desc = true
	return b
}

func (b *SearchQueryBuilder) OrderAsc() *SearchQueryBuilder {
	b.desc = false
	return b
}

// Clone returns a deep copy safe to mutate independently of b, used by
// FilterToReducer to advance its position cursor between batches without
// disturbing the caller's original builder.
func (b *SearchQueryBuilder) Clone() *SearchQueryBuilder {
	clone := &SearchQueryBuilder{
		instanceID: b.instanceID,
		limit:      b.limit,
		desc:       b.desc,
		queries:    make([]*SearchQuery, len(b.queries)),
	}
	for i, q := range b.queries {
		copied := *q
		copied.aggregateTypes = append([]AggregateType(nil), q.aggregateTypes...)
		copied.aggregateIDs = append([]string(nil), q.aggregateIDs...)
		copied.eventTypes = append([]EventType(nil), q.eventTypes...)
		copied.excludeAggregateTypes = append([]AggregateType(nil), q.excludeAggregateTypes...)
		copied.excludeAggregateIDs = append([]string(nil), q.excludeAggregateIDs...)
		copied.excludeEventTypes = append([]EventType(nil), q.excludeEventTypes...)
		clone.queries[i] = &copied
	}
	return clone
}

// AddQuery starts a new OR-branch and returns it for further narrowing.
func (b *SearchQueryBuilder) AddQuery() *SearchQuery {
	q := &SearchQuery{}
	b.queries = append(b.queries, q)
	return q
}

func (q *SearchQuery) AggregateTypes(types ...AggregateType) *SearchQuery {
	q.aggregateTypes = append(q.aggregateTypes, types...)
	return q
}

func (q *SearchQuery) AggregateIDs(ids ...string) *SearchQuery {
	q.aggregateIDs = append(q.aggregateIDs, ids...)
	return q
}

func (q *SearchQuery) EventTypes(types ...EventType) *SearchQuery {
	q.eventTypes = append(q.eventTypes, types...)
	return q
}

func (q *SearchQuery) ResourceOwner(owner string) *SearchQuery {
	q.resourceOwner = owner
	return q
}

func (q *SearchQuery) ExcludeAggregateTypes(types ...AggregateType) *SearchQuery {
	q.excludeAggregateTypes = append(q.excludeAggregateTypes, types...)
	return q
}

func (q *SearchQuery) ExcludeAggregateIDs(ids ...string) *SearchQuery {
	q.excludeAggregateIDs = append(q.excludeAggregateIDs, ids...)
	return q
}

func (q *SearchQuery) ExcludeEventTypes(types ...EventType) *SearchQuery {
	q.excludeEventTypes = append(q.excludeEventTypes, types...)
	return q
}

func (q *SearchQuery) PositionAfter(pos float64) *SearchQuery {
	q.positionAfter = &pos
	return q
}

func (q *SearchQuery) PositionBefore(pos float64) *SearchQuery {
	q.positionBefore = &pos
	return q
}

// AfterCursor restricts to events strictly after (position, inTxOrder) in
// the log's total order: position ascending, then inTxOrder
// ascending for events of the same transactional append. Used by
// FilterToReducer and the projection engine to resume a stream without
// dropping sibling events of a transaction that straddled a batch boundary.
func (q *SearchQuery) AfterCursor(position float64, inTxOrder uint32) *SearchQuery {
	q.afterCursorPos = &position
	q.afterCursorTxOrder = inTxOrder
	return q
}

// Matches reports whether e satisfies this OR-branch's AND/exclusion
// predicate, scoped to the builder's instance. This is the single source
// of truth the SQL adapter's WHERE-clause generation must stay consistent
// with, and what the in-memory fake repository (used by unit tests) uses
// directly.
func (b *SearchQueryBuilder) Matches(e Event) bool {
	if b.instanceID != "" && e.Aggregate().InstanceID != b.instanceID {
		return false
	}
	for _, q := range b.Queries() {
		if q.matches(e) {
			return true
		}
	}
	return false
}

func (q *SearchQuery) matches(e Event) bool {
	agg := e.Aggregate()
	if len(q.aggregateTypes) > 0 && !containsAggType(q.aggregateTypes, agg.Type) {
		return false
	}
	if len(q.aggregateIDs) > 0 && !containsString(q.aggregateIDs, agg.ID) {
		return false
	}
	if len(q.eventTypes) > 0 && !containsEventType(q.eventTypes, e.Type()) {
		return false
	}
	if q.resourceOwner != "" && agg.ResourceOwner != q.resourceOwner {
		return false
	}
	if containsAggType(q.excludeAggregateTypes, agg.Type) {
		return false
	}
	if containsString(q.excludeAggregateIDs, agg.ID) {
		return false
	}
	if containsEventType(q.excludeEventTypes, e.Type()) {
		return false
	}
	if q.positionAfter != nil && e.Position() <= *q.positionAfter {
		return false
	}
	if q.positionBefore != nil && e.Position() >= *q.positionBefore {
		return false
	}
	if q.afterCursorPos != nil {
		if e.Position() < *q.afterCursorPos {
			return false
		}
		if e.Position() == *q.afterCursorPos && e.InTxOrder() <= q.afterCursorTxOrder {
			return false
		}
	}
	return true
}

// Cursor is the exported form of a branch's AfterCursor restriction, used
// by storage adapters to translate it into SQL (position, in_tx_order)
// predicates.
type Cursor struct {
	Position  float64
	InTxOrder uint32
}

// The Export* accessors below give storage adapters in other packages
// read access to a branch's predicate without exposing mutation.

func (q *SearchQuery) ExportAggregateTypes() []AggregateType        { return q.aggregateTypes }
func (q *SearchQuery) ExportAggregateIDs() []string                 { return q.aggregateIDs }
func (q *SearchQuery) ExportEventTypes() []EventType                { return q.eventTypes }
func (q *SearchQuery) ExportResourceOwner() string                  { return q.resourceOwner }
func (q *SearchQuery) ExportExcludeAggregateTypes() []AggregateType { return q.excludeAggregateTypes }
func (q *SearchQuery) ExportExcludeAggregateIDs() []string          { return q.excludeAggregateIDs }
func (q *SearchQuery) ExportExcludeEventTypes() []EventType         { return q.excludeEventTypes }
func (q *SearchQuery) ExportPositionAfter() *float64                { return q.positionAfter }
func (q *SearchQuery) ExportPositionBefore() *float64               { return q.positionBefore }

func (q *SearchQuery) ExportAfterCursor() (Cursor, bool) {
	if q.afterCursorPos == nil {
		return Cursor{}, false
	}
	return Cursor{Position: *q.afterCursorPos, InTxOrder: q.afterCursorTxOrder}, true
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsAggType(list []AggregateType, v AggregateType) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsEventType(list []EventType, v EventType) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
