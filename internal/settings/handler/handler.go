package handler

import (
	"context"
	"errors"

	"github.com/fekuna/chronostore/internal/auth"
	"github.com/fekuna/chronostore/internal/currency"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/rpc"
	"github.com/fekuna/chronostore/internal/settings"
	"github.com/fekuna/chronostore/internal/settings/dto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "chronostore.settings.v1.SettingsService"

type SettingsServiceServer interface {
	GetSettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateSettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SettingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetSettings", SettingsServiceServer.GetSettings),
		rpc.Unary(ServiceName, "UpdateSettings", SettingsServiceServer.UpdateSettings),
	},
	Metadata: "chronostore/settings/v1/settings.proto",
}

var _ SettingsServiceServer = (*SettingsHandler)(nil)

type SettingsHandler struct {
	uc     settings.UseCase
	rates  *currency.Converter
	logger logger.ZapLogger
}

func NewSettingsHandler(uc settings.UseCase, rates *currency.Converter, log logger.ZapLogger) *SettingsHandler {
	return &SettingsHandler{
		uc:     uc,
		rates:  rates,
		logger: log,
	}
}

func Register(s grpc.ServiceRegistrar, h *SettingsHandler) {
	s.RegisterService(&ServiceDesc, h)
}

// GetSettings is public; the storefront needs the store name and contacts.
func (h *SettingsHandler) GetSettings(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Encode(dto.SettingsResponse{Settings: h.uc.Get(ctx), Currencies: h.rates.Codes()})
}

func (h *SettingsHandler) UpdateSettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	var input dto.UpdateSettingsInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, err
	}

	s, err := h.uc.Update(ctx, input.SettingsPatch)
	if err != nil {
		switch {
		case errors.Is(err, settings.ErrEmptyStoreName),
			errors.Is(err, settings.ErrUnknownCurrency),
			errors.Is(err, settings.ErrNegativeThreshold):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return rpc.Encode(dto.SettingsResponse{Settings: s, Currencies: h.rates.Codes()})
}
