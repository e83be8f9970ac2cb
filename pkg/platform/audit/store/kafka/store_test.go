package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "lotellar/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if f.err == nil {
			f.records = append(f.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestStore_AppendEncodesEvent(t *testing.T) {
	fake := &fakeProducer{}
	store := &Store{producer: fake, topic: "lottery-audit"}

	event := audit.Event{
		Category:  audit.CategoryCompliance,
		Action:    string(audit.EventLotteryCompleted),
		Actor:     "GCREATOR",
		LotteryID: 42,
		Subject:   "GP1",
	}
	require.NoError(t, store.Append(context.Background(), event))

	require.Len(t, fake.records, 1)
	rec := fake.records[0]
	assert.Equal(t, "lottery-audit", rec.Topic)
	assert.Equal(t, "42", string(rec.Key))
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "compliance", string(rec.Headers[0].Value))

	var got audit.Event
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.Equal(t, event, got)
}

func TestStore_KeyFallsBackToActor(t *testing.T) {
	assert.Equal(t, "GMALLORY", string(recordKey(audit.Event{Actor: "GMALLORY"})))
	assert.Nil(t, recordKey(audit.Event{Action: string(audit.EventRegistryInitialized)}))
}

func TestStore_AppendReportsProduceFailure(t *testing.T) {
	store := &Store{producer: &fakeProducer{err: errors.New("leader not available")}, topic: "t"}
	err := store.Append(context.Background(), audit.Event{Action: "lottery_entered"})
	require.ErrorContains(t, err, "leader not available")
}
