package auth

import (
	"context"
	"errors"

	"google.golang.org/grpc/metadata"
)

type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleCustomer  Role = "customer"
	RoleAdmin     Role = "admin"
)

// Metadata keys forwarded by the gateway. HTTP uses the same names as headers.
const (
	HeaderUserID    = "x-user-id"
	HeaderUserRole  = "x-user-role"
	HeaderSessionID = "x-session-id"
)

var ErrAdminRequired = errors.New("administrator role required")

type Session struct {
	UserID    string
	SessionID string
	Role      Role
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// OwnerID identifies whose cart and favorites a request touches.
func (s Session) OwnerID() string {
	if s.UserID != "" {
		return "user:" + s.UserID
	}
	if s.SessionID != "" {
		return "session:" + s.SessionID
	}
	return ""
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the resolved session, or an anonymous one.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionKey{}).(Session); ok {
		return s
	}
	return Session{Role: RoleAnonymous}
}

func RequireAdmin(ctx context.Context) error {
	if !FromContext(ctx).IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// GetUserID reads the user id from the resolved session, falling back to
// raw gRPC metadata.
func GetUserID(ctx context.Context) string {
	if s, ok := ctx.Value(sessionKey{}).(Session); ok {
		return s.UserID
	}
	return firstMetadata(ctx, HeaderUserID)
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(key); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
