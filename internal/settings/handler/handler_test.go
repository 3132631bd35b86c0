package handler

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/fekuna/chronostore/internal/auth"
	"github.com/fekuna/chronostore/internal/currency"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/rpc"
	"github.com/fekuna/chronostore/internal/settings/dto"
	"github.com/fekuna/chronostore/internal/settings/repository"
	"github.com/fekuna/chronostore/internal/settings/usecase"
	"github.com/fekuna/chronostore/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type staticAdmins map[string]bool

func (s staticAdmins) IsAdmin(_ context.Context, id string) (bool, error) { return s[id], nil }

type downRemote struct{ down bool }

func (r *downRemote) Fetch(context.Context) (*model.Settings, error) { return nil, nil }

func (r *downRemote) Save(context.Context, model.Settings) error {
	if r.down {
		return errors.New("connection reset")
	}
	return nil
}

func startServer(t *testing.T, remote *downRemote) *grpc.ClientConn {
	t.Helper()
	log := logger.NewNop()
	store := storage.NewStore(storage.NewMemoryKV(), log)
	rates := currency.NewConverter(log)
	uc := usecase.NewSettingsUseCase(repository.NewStoreRepository(store), remote, rates, log)
	if err := uc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.NewResolver(staticAdmins{"boss": true}, log).UnaryInterceptor()))
	Register(srv, NewSettingsHandler(uc, rates, log))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSettingsService(t *testing.T) {
	remote := &downRemote{}
	conn := startServer(t, remote)
	admin := metadata.AppendToOutgoingContext(context.Background(), auth.HeaderUserID, "boss", auth.HeaderUserRole, "admin")

	var got dto.SettingsResponse
	if err := rpc.Call(context.Background(), conn, ServiceName, "GetSettings", struct{}{}, &got); err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got.StoreName != model.DefaultSettings().StoreName || len(got.Currencies) == 0 {
		t.Errorf("settings = %+v", got)
	}

	name := "Watch Gallery"
	patch := dto.UpdateSettingsInput{SettingsPatch: model.SettingsPatch{StoreName: &name}}
	err := rpc.Call(context.Background(), conn, ServiceName, "UpdateSettings", patch, nil)
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("anonymous update: %v", err)
	}

	if err := rpc.Call(admin, conn, ServiceName, "UpdateSettings", patch, &got); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got.StoreName != name {
		t.Errorf("store name = %q", got.StoreName)
	}

	bad := "ZZZ"
	err = rpc.Call(admin, conn, ServiceName, "UpdateSettings", dto.UpdateSettingsInput{SettingsPatch: model.SettingsPatch{Currency: &bad}}, nil)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("unknown currency: %v", err)
	}

	remote.down = true
	other := "Never"
	err = rpc.Call(admin, conn, ServiceName, "UpdateSettings", dto.UpdateSettingsInput{SettingsPatch: model.SettingsPatch{StoreName: &other}}, nil)
	if status.Code(err) != codes.Unavailable {
		t.Errorf("remote down: %v", err)
	}
	if err := rpc.Call(context.Background(), conn, ServiceName, "GetSettings", struct{}{}, &got); err != nil || got.StoreName != name {
		t.Errorf("after failed update store name = %q (%v)", got.StoreName, err)
	}
}
