package mystore

import (
	"context"
)

type ctxTransactionKey struct{}

type Filter struct {
	Field   string
	Compare string
	Value   any
}

// Config selects and configures the backing store. An empty ProjectID
// selects the in-memory implementation.
type Config struct {
	ProjectID       string
	CredentialsJSON []byte
	Endpoint        string
}

//go:generate mockgen -source=api.go -package mystore -destination store_mock.go Store
type Store[T any] interface {
	RunInTransaction(c context.Context, f func(c context.Context) error) error
	Put(c context.Context, uid string, value T) error
	Get(c context.Context, uid string) (T, bool, error)
	List(c context.Context) ([]T, error)
	Query(c context.Context, filters []Filter, orderByField string) ([]T, error)
}

func New[T any](c context.Context, cfg Config) (Store[T], func(), error) {
	if cfg.ProjectID != "" {
		return newGcloudStore[T](c, cfg)
	}

	return NewInMemoryStore[T](c)
}
