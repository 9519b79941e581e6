package http

import (
	"context"

	"github.com/wyfcoding/loanloey/internal/account/application"
	"github.com/wyfcoding/loanloey/pkg/middleware"
)

// sessionResolver 将账户会话适配为认证中间件所需的形状
type sessionResolver struct {
	svc *application.AccountService
}

func NewSessionResolver(svc *application.AccountService) middleware.SessionResolver {
	return sessionResolver{svc: svc}
}

func (r sessionResolver) Resolve(ctx context.Context, token string) (*middleware.Session, error) {
	session, err := r.svc.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Session{UserID: session.UserID, Role: string(session.Role)}, nil
}
