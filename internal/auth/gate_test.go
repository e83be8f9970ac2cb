package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"lotellar/internal/lottery/models"
	dErrors "lotellar/pkg/domain-errors"
	"lotellar/pkg/requestcontext"
)

func TestGate_Verify(t *testing.T) {
	gate := NewGate()
	ctx := requestcontext.WithPrincipal(context.Background(), "GCREATOR")

	assert.NoError(t, gate.Verify(ctx, "GCREATOR"))

	err := gate.Verify(ctx, "GMALLORY")
	assert.True(t, errors.Is(err, models.ErrAuthorizationFailed))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = gate.Verify(context.Background(), "GCREATOR")
	assert.True(t, errors.Is(err, models.ErrAuthorizationFailed), "anonymous requests verify nobody")
}
