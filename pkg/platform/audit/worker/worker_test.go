package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "lotellar/pkg/platform/audit"
	"lotellar/pkg/platform/audit/store/memory"
)

type flakyStore struct {
	inner *memory.InMemoryStore
}

func (f flakyStore) Append(ctx context.Context, e audit.Event) error {
	if e.Action == "bad" {
		return errors.New("rejected")
	}
	return f.inner.Append(ctx, e)
}

func TestWorker_DrainsUntilInboxClosed(t *testing.T) {
	store := memory.NewInMemoryStore()
	inbox := make(chan audit.Event, 3)
	var failed []string
	w := NewWorker(flakyStore{inner: store}, inbox, func(e audit.Event, _ error) {
		failed = append(failed, e.Action)
	})

	inbox <- audit.Event{Action: "a"}
	inbox <- audit.Event{Action: "bad"}
	inbox <- audit.Event{Action: "c"}
	close(inbox)

	require.NoError(t, w.Run(context.Background()))
	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, []string{"bad"}, failed)
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewWorker(memory.NewInMemoryStore(), make(chan audit.Event), nil)
	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
}
