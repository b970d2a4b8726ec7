package port

import (
	"context"

	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/internal/domain/workflow"
)

// RequestFilter narrows a request listing. Zero values mean "no constraint".
type RequestFilter struct {
	Requestor string
	Statuses  []workflow.Status
	Search    string
	Limit     int
	Offset    int
}

// RequestRepository defines persistence operations for service requests.
// Requests are append-only: there is no delete.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, id string) (*entity.Request, error)
	Update(ctx context.Context, req *entity.Request) error
	List(ctx context.Context, filter RequestFilter) ([]*entity.Request, error)
	Count(ctx context.Context, filter RequestFilter) (int, error)
	ListOpen(ctx context.Context, limit int) ([]*entity.Request, error)
}

// KVStore is a durable key/value record store. Get returns (nil, nil) for a
// missing key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
