package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s8r-framework/s8r/pkg/adapters/memory"
	"github.com/s8r-framework/s8r/pkg/domain"
)

func TestDataFlow_PublishSkipsSource(t *testing.T) {
	flow := memory.NewDataFlow(nil)
	producer := domain.NewComponentID("producer")
	consumer := domain.NewComponentID("consumer")

	producerGot := 0
	consumerGot := 0
	require.NoError(t, flow.Subscribe(producer, "readings", func(ctx context.Context, e domain.ComponentDataEvent) {
		producerGot++
	}))
	require.NoError(t, flow.Subscribe(consumer, "readings", func(ctx context.Context, e domain.ComponentDataEvent) {
		consumerGot++
		assert.Equal(t, 21.5, e.Data()["celsius"])
	}))

	event := domain.NewComponentDataEvent(producer, "readings", map[string]any{"celsius": 21.5})
	require.NoError(t, flow.Publish(context.Background(), event))

	assert.Equal(t, 0, producerGot, "publisher must not hear its own data")
	assert.Equal(t, 1, consumerGot)
}

func TestDataFlow_Unsubscribe(t *testing.T) {
	flow := memory.NewDataFlow(nil)
	id := domain.NewComponentID("subscriber")
	got := 0
	require.NoError(t, flow.Subscribe(id, "alerts", func(ctx context.Context, e domain.ComponentDataEvent) {
		got++
	}))

	flow.Unsubscribe(id, "alerts")

	other := domain.NewComponentID("other")
	event := domain.NewComponentDataEvent(other, "alerts", nil)
	require.NoError(t, flow.Publish(context.Background(), event))
	assert.Equal(t, 0, got)
	assert.Empty(t, flow.Channels())
}

func TestDataFlow_UnsubscribeAll(t *testing.T) {
	flow := memory.NewDataFlow(nil)
	id := domain.NewComponentID("subscriber")
	handler := func(ctx context.Context, e domain.ComponentDataEvent) {}
	require.NoError(t, flow.Subscribe(id, "alerts", handler))
	require.NoError(t, flow.Subscribe(id, "readings", handler))

	assert.ElementsMatch(t, []string{"alerts", "readings"}, flow.SubscriptionsOf(id))

	flow.UnsubscribeAll(id)
	assert.Empty(t, flow.SubscriptionsOf(id))
	assert.Empty(t, flow.Channels())
}

func TestDataFlow_PanicIsolated(t *testing.T) {
	flow := memory.NewDataFlow(nil)
	bad := domain.NewComponentID("bad subscriber")
	good := domain.NewComponentID("good subscriber")
	got := 0
	require.NoError(t, flow.Subscribe(bad, "readings", func(ctx context.Context, e domain.ComponentDataEvent) {
		panic("handler bug")
	}))
	require.NoError(t, flow.Subscribe(good, "readings", func(ctx context.Context, e domain.ComponentDataEvent) {
		got++
	}))

	source := domain.NewComponentID("producer")
	event := domain.NewComponentDataEvent(source, "readings", nil)
	require.NoError(t, flow.Publish(context.Background(), event))
	assert.Equal(t, 1, got)
}

func TestDataFlow_RejectsEmptyChannel(t *testing.T) {
	flow := memory.NewDataFlow(nil)
	id := domain.NewComponentID("subscriber")

	err := flow.Subscribe(id, "", func(ctx context.Context, e domain.ComponentDataEvent) {})
	assert.Error(t, err)

	err = flow.Publish(context.Background(), domain.NewComponentDataEvent(id, "", nil))
	assert.Error(t, err)
}
