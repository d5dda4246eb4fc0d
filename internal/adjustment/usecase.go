package adjustment

import (
	"context"

	"github.com/ardhix/warehouse-ledger/internal/adjustment/dto"
	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

type UseCase interface {
	CreateRequest(ctx context.Context, actor auth.Actor, input *dto.CreateRequestInput) (*model.AdjustmentRequest, error)
	Approve(ctx context.Context, actor auth.Actor, id string) (*model.AdjustmentRequest, *model.TransactionEntry, error)
	Reject(ctx context.Context, actor auth.Actor, id string) (*model.AdjustmentRequest, error)
	GetRequest(ctx context.Context, id string) (*model.AdjustmentRequest, error)
	ListRequests(ctx context.Context, filters *dto.RequestFilters) ([]model.AdjustmentRequest, int, error)
}
