package handler

import (
	"context"
	"errors"

	"github.com/fekuna/chronostore/internal/auth"
	"github.com/fekuna/chronostore/internal/inventory"
	"github.com/fekuna/chronostore/internal/inventory/dto"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "chronostore.inventory.v1.InventoryService"

type InventoryServiceServer interface {
	PlaceOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RestoreFromArchive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteFromArchive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateOrderStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListArchived(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "PlaceOrder", InventoryServiceServer.PlaceOrder),
		rpc.Unary(ServiceName, "UpdateStock", InventoryServiceServer.UpdateStock),
		rpc.Unary(ServiceName, "RestoreFromArchive", InventoryServiceServer.RestoreFromArchive),
		rpc.Unary(ServiceName, "DeleteFromArchive", InventoryServiceServer.DeleteFromArchive),
		rpc.Unary(ServiceName, "DeleteProduct", InventoryServiceServer.DeleteProduct),
		rpc.Unary(ServiceName, "UpdateOrderStatus", InventoryServiceServer.UpdateOrderStatus),
		rpc.Unary(ServiceName, "CreateProduct", InventoryServiceServer.CreateProduct),
		rpc.Unary(ServiceName, "UpdateProduct", InventoryServiceServer.UpdateProduct),
		rpc.Unary(ServiceName, "GetProduct", InventoryServiceServer.GetProduct),
		rpc.Unary(ServiceName, "ListProducts", InventoryServiceServer.ListProducts),
		rpc.Unary(ServiceName, "ListArchived", InventoryServiceServer.ListArchived),
		rpc.Unary(ServiceName, "ListOrders", InventoryServiceServer.ListOrders),
		rpc.Unary(ServiceName, "GetOrder", InventoryServiceServer.GetOrder),
	},
	Metadata: "chronostore/inventory/v1/inventory.proto",
}

var _ InventoryServiceServer = (*InventoryHandler)(nil)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func Register(s grpc.ServiceRegistrar, h *InventoryHandler) {
	s.RegisterService(&ServiceDesc, h)
}

// PlaceOrder is open to every role; the storefront checkout uses it too.
func (h *InventoryHandler) PlaceOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input dto.PlaceOrderInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	order, err := h.uc.PlaceOrder(ctx, &input)
	if err != nil {
		return nil, h.mapError("failed to place order", err)
	}
	return rpc.Encode(order)
}

func (h *InventoryHandler) UpdateStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.UpdateStockInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	if err := h.uc.UpdateStock(ctx, input.ProductID, input.Stock); err != nil {
		return nil, h.mapError("failed to update stock", err)
	}
	return &structpb.Struct{}, nil
}

func (h *InventoryHandler) RestoreFromArchive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.RestoreInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}
	if input.InitialStock <= 0 {
		return nil, status.Error(codes.InvalidArgument, "initial_stock must be a positive integer")
	}

	if err := h.uc.RestoreFromArchive(ctx, input.ProductID, input.InitialStock); err != nil {
		return nil, h.mapError("failed to restore product", err)
	}
	return &structpb.Struct{}, nil
}

func (h *InventoryHandler) DeleteFromArchive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.IDInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	if err := h.uc.DeleteFromArchive(ctx, input.ID); err != nil {
		return nil, h.mapError("failed to delete archived product", err)
	}
	return &structpb.Struct{}, nil
}

func (h *InventoryHandler) DeleteProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.IDInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	if err := h.uc.DeleteProduct(ctx, input.ID); err != nil {
		return nil, h.mapError("failed to delete product", err)
	}
	return &structpb.Struct{}, nil
}

func (h *InventoryHandler) UpdateOrderStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.UpdateOrderStatusInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}
	st := model.OrderStatus(input.Status)
	if !st.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown order status %q", input.Status)
	}

	if err := h.uc.UpdateOrderStatus(ctx, input.OrderID, st); err != nil {
		return nil, h.mapError("failed to update order status", err)
	}
	return &structpb.Struct{}, nil
}

func (h *InventoryHandler) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.ProductInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	p, err := h.uc.CreateProduct(ctx, &input)
	if err != nil {
		return nil, h.mapError("failed to create product", err)
	}
	return rpc.Encode(p)
}

func (h *InventoryHandler) UpdateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input struct {
		ID int64 `json:"id"`
		dto.ProductInput
	}
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	p, err := h.uc.UpdateProduct(ctx, input.ID, &input.ProductInput)
	if err != nil {
		return nil, h.mapError("failed to update product", err)
	}
	if p == nil {
		return nil, status.Error(codes.NotFound, "product not found")
	}
	return rpc.Encode(p)
}

func (h *InventoryHandler) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input dto.IDInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	p, err := h.uc.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if p == nil || (p.Archived && !auth.FromContext(ctx).IsAdmin()) {
		return nil, status.Error(codes.NotFound, "product not found")
	}
	return rpc.Encode(p)
}

func (h *InventoryHandler) ListProducts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	products, err := h.uc.ListActive(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return rpc.Encode(dto.ProductListResponse{Products: products, Total: len(products)})
}

func (h *InventoryHandler) ListArchived(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	products, err := h.uc.ListArchived(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return rpc.Encode(dto.ProductListResponse{Products: products, Total: len(products)})
}

func (h *InventoryHandler) ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var filters dto.OrderFilters
	if err := rpc.Decode(req, &filters); err != nil {
		return nil, err
	}

	orders, total, err := h.uc.ListOrders(ctx, &filters)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return rpc.Encode(dto.OrderListResponse{Orders: orders, Total: total})
}

func (h *InventoryHandler) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.IDInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	o, err := h.uc.GetOrder(ctx, input.ID)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if o == nil {
		return nil, status.Error(codes.NotFound, "order not found")
	}
	return rpc.Encode(o)
}

func (h *InventoryHandler) mapError(msg string, err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidOrder),
		errors.Is(err, model.ErrMissingTitle),
		errors.Is(err, model.ErrInvalidPrice),
		errors.Is(err, model.ErrInvalidOldPrice),
		errors.Is(err, model.ErrNegativeStock):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, inventory.ErrNothingAvailable):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	h.logger.Error(msg, zap.Error(err))
	return status.Error(codes.Internal, err.Error())
}
