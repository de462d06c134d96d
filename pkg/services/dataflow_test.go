package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s8r-framework/s8r/pkg/adapters/memory"
	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/services"
)

func newDataFlowService(t *testing.T) (*services.DataFlowService, *services.ComponentService) {
	t.Helper()
	repo := memory.NewComponentRepository()
	dispatcher := memory.NewDispatcher(nil)
	flow := memory.NewDataFlow(nil)
	flowSvc := services.NewDataFlowService(repo, flow, dispatcher)
	componentSvc := services.NewComponentService(repo, dispatcher,
		services.WithComponentDataFlow(flow))
	return flowSvc, componentSvc
}

func TestDataFlowService_PublishRequiresOperationalState(t *testing.T) {
	flowSvc, componentSvc := newDataFlowService(t)
	ctx := context.Background()

	producer, err := componentSvc.CreateComponent(ctx, "producer")
	require.NoError(t, err)
	consumer, err := componentSvc.CreateComponent(ctx, "consumer")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, flowSvc.Subscribe(ctx, consumer.ID(), "readings", func(ctx context.Context, e domain.ComponentDataEvent) {
		got = e.Data()
	}))

	// Ready is operational, so publishing succeeds.
	require.NoError(t, flowSvc.Publish(ctx, producer.ID(), "readings", map[string]any{"value": 42}))
	require.NotNil(t, got)
	assert.Equal(t, 42, got["value"])

	// A terminated component cannot publish.
	require.NoError(t, componentSvc.TerminateComponent(ctx, producer.ID()))
	err = flowSvc.Publish(ctx, producer.ID(), "readings", nil)
	var opErr *domain.InvalidOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "publish", opErr.Operation)
}

func TestDataFlowService_SubscribeRejectsTerminated(t *testing.T) {
	flowSvc, componentSvc := newDataFlowService(t)
	ctx := context.Background()

	c, err := componentSvc.CreateComponent(ctx, "late subscriber")
	require.NoError(t, err)
	require.NoError(t, componentSvc.TerminateComponent(ctx, c.ID()))

	err = flowSvc.Subscribe(ctx, c.ID(), "readings", func(ctx context.Context, e domain.ComponentDataEvent) {})
	var opErr *domain.InvalidOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "subscribe", opErr.Operation)
}

func TestDataFlowService_ChannelIntrospection(t *testing.T) {
	flowSvc, componentSvc := newDataFlowService(t)
	ctx := context.Background()

	c, err := componentSvc.CreateComponent(ctx, "introspected")
	require.NoError(t, err)
	handler := func(ctx context.Context, e domain.ComponentDataEvent) {}
	require.NoError(t, flowSvc.Subscribe(ctx, c.ID(), "alerts", handler))
	require.NoError(t, flowSvc.Subscribe(ctx, c.ID(), "readings", handler))

	assert.Equal(t, []string{"alerts", "readings"}, flowSvc.Channels())
	assert.Equal(t, []string{"alerts", "readings"}, flowSvc.SubscriptionsOf(c.ID()))

	flowSvc.Unsubscribe(c.ID(), "alerts")
	assert.Equal(t, []string{"readings"}, flowSvc.SubscriptionsOf(c.ID()))
}
