package handler

import (
	"context"

	"github.com/fekuna/chronostore/internal/auth"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/rpc"
	"github.com/fekuna/chronostore/internal/statistics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "chronostore.statistics.v1.StatisticsService"

type StatisticsServiceServer interface {
	GetStatistics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatisticsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetStatistics", StatisticsServiceServer.GetStatistics),
	},
	Metadata: "chronostore/statistics/v1/statistics.proto",
}

type StatisticsHandler struct {
	agg    *statistics.Aggregator
	logger logger.ZapLogger
}

func NewStatisticsHandler(agg *statistics.Aggregator, log logger.ZapLogger) *StatisticsHandler {
	return &StatisticsHandler{agg: agg, logger: log}
}

func Register(s grpc.ServiceRegistrar, h *StatisticsHandler) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *StatisticsHandler) GetStatistics(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.AdminUnary(ctx); err != nil {
		return nil, err
	}
	snap, err := h.agg.GetStatistics(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return rpc.Encode(snap)
}
