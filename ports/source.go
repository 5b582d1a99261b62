package ports

import (
	"context"

	"tablefit/domain/table"
)

// TableSource is any collaborator producing a Table: file readers,
// database queries, in-memory construction.
type TableSource interface {
	Load(ctx context.Context) (table.Table, error)
}
