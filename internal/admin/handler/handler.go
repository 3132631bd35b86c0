package handler

import (
	"context"
	"errors"

	"github.com/fekuna/chronostore/internal/admin"
	"github.com/fekuna/chronostore/internal/admin/dto"
	"github.com/fekuna/chronostore/internal/auth"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "chronostore.admin.v1.AdminService"

type AdminServiceServer interface {
	CreateAdmin(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteAdmin(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAdmins(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "CreateAdmin", AdminServiceServer.CreateAdmin),
		rpc.Unary(ServiceName, "DeleteAdmin", AdminServiceServer.DeleteAdmin),
		rpc.Unary(ServiceName, "ListAdmins", AdminServiceServer.ListAdmins),
		rpc.Unary(ServiceName, "Login", AdminServiceServer.Login),
		rpc.Unary(ServiceName, "ChangePassword", AdminServiceServer.ChangePassword),
	},
	Metadata: "chronostore/admin/v1/admin.proto",
}

var _ AdminServiceServer = (*AdminHandler)(nil)

type AdminHandler struct {
	uc     admin.UseCase
	logger logger.ZapLogger
}

func NewAdminHandler(uc admin.UseCase, log logger.ZapLogger) *AdminHandler {
	return &AdminHandler{
		uc:     uc,
		logger: log,
	}
}

func Register(s grpc.ServiceRegistrar, h *AdminHandler) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *AdminHandler) CreateAdmin(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.CreateAdminInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	a, err := h.uc.CreateAdmin(ctx, &input)
	if err != nil {
		return nil, h.mapError("failed to create administrator", err)
	}
	return rpc.Encode(dto.NewAdminResponse(a))
}

func (h *AdminHandler) DeleteAdmin(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.DeleteAdminInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	if err := h.uc.DeleteAdmin(ctx, auth.GetUserID(ctx), input.ID); err != nil {
		return nil, h.mapError("failed to delete administrator", err)
	}
	return &structpb.Struct{}, nil
}

func (h *AdminHandler) ListAdmins(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	admins, err := h.uc.ListAdmins(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	resp := dto.AdminListResponse{Admins: make([]dto.AdminResponse, len(admins))}
	for i := range admins {
		resp.Admins[i] = dto.NewAdminResponse(&admins[i])
	}
	return rpc.Encode(resp)
}

func (h *AdminHandler) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input dto.LoginInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	a, err := h.uc.Authenticate(ctx, input.Phone, input.Password)
	if err != nil {
		return nil, h.mapError("login failed", err)
	}
	return rpc.Encode(dto.NewAdminResponse(a))
}

func (h *AdminHandler) ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.ChangePasswordInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	if err := h.uc.ChangePassword(ctx, auth.GetUserID(ctx), input.OldPassword, input.NewPassword); err != nil {
		return nil, h.mapError("failed to change password", err)
	}
	return &structpb.Struct{}, nil
}

func (h *AdminHandler) mapError(msg string, err error) error {
	switch {
	case errors.Is(err, admin.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, admin.ErrPhoneTaken):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, admin.ErrSelfDelete), errors.Is(err, admin.ErrLastAdmin):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, admin.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, err.Error())
	}
	h.logger.Error(msg, zap.Error(err))
	return status.Error(codes.Internal, err.Error())
}
