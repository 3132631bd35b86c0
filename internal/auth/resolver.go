package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/fekuna/chronostore/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AdminDirectory answers whether a user id belongs to an administrator.
type AdminDirectory interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type Resolver struct {
	admins AdminDirectory
	logger logger.ZapLogger
}

func NewResolver(admins AdminDirectory, log logger.ZapLogger) *Resolver {
	return &Resolver{admins: admins, logger: log}
}

// Resolve turns forwarded identity into a session. The admin flag is only
// honoured for ids present in the administrator directory.
func (r *Resolver) Resolve(ctx context.Context, userID, role, sessionID string) Session {
	userID = strings.TrimSpace(userID)
	s := Session{UserID: userID, SessionID: strings.TrimSpace(sessionID), Role: RoleAnonymous}
	if userID == "" {
		return s
	}
	s.Role = RoleCustomer
	if !strings.EqualFold(strings.TrimSpace(role), string(RoleAdmin)) {
		return s
	}

	ok, err := r.admins.IsAdmin(ctx, userID)
	if err != nil {
		r.logger.Error("admin lookup failed", zap.String("user_id", userID), zap.Error(err))
		return s
	}
	if !ok {
		r.logger.Warn("admin role claimed by unknown user", zap.String("user_id", userID))
		return s
	}
	s.Role = RoleAdmin
	return s
}

func (r *Resolver) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		s := r.Resolve(ctx,
			firstMetadata(ctx, HeaderUserID),
			firstMetadata(ctx, HeaderUserRole),
			firstMetadata(ctx, HeaderSessionID),
		)
		return handler(WithSession(ctx, s), req)
	}
}

// AdminUnary rejects non-admin sessions with PermissionDenied.
func AdminUnary(ctx context.Context) error {
	if err := RequireAdmin(ctx); err != nil {
		return status.Error(codes.PermissionDenied, err.Error())
	}
	return nil
}

func (r *Resolver) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		s := r.Resolve(req.Context(),
			req.Header.Get(HeaderUserID),
			req.Header.Get(HeaderUserRole),
			req.Header.Get(HeaderSessionID),
		)
		c.Request = req.WithContext(WithSession(req.Context(), s))
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := RequireAdmin(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}
