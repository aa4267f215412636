package eventstore

import "context"

// Repository is the storage-adapter contract the facade drives.
// internal/eventstore/repository/sql implements it against CockroachDB /
// Postgres.
type Repository interface {
	Push(ctx context.Context, commands ...Command) ([]Event, error)
	Filter(ctx context.Context, query *SearchQueryBuilder) ([]Event, error)
	LatestPosition(ctx context.Context, query *SearchQueryBuilder) (float64, error)
	Health(ctx context.Context) error
}
