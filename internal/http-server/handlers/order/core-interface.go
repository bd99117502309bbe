package order

import (
	"context"

	"printflow/entity"
)

type Core interface {
	RefreshOrderStatus(ctx context.Context, orderID string) (*entity.RefreshResult, error)
	ResendInvoice(ctx context.Context, orderID string) error
}
