package auth

import (
	"context"

	"lotellar/internal/lottery/models"
	"lotellar/pkg/requestcontext"
)

// Gate verifies that an operation's identity is the principal the bearer
// middleware authenticated for this request.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) Verify(ctx context.Context, identity models.Address) error {
	principal := requestcontext.Principal(ctx)
	if principal == "" || models.Address(principal) != identity {
		return models.Unauthorized(identity)
	}
	return nil
}
