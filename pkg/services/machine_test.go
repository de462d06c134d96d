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

func newMachineService(t *testing.T) (*services.MachineService, *services.ComponentService, *memory.Dispatcher) {
	t.Helper()
	components := memory.NewComponentRepository()
	machines := memory.NewMachineRepository()
	dispatcher := memory.NewDispatcher(nil)
	machineSvc := services.NewMachineService(machines, components, dispatcher)
	componentSvc := services.NewComponentService(components, dispatcher)
	return machineSvc, componentSvc, dispatcher
}

func TestMachineService_FullLifecycle(t *testing.T) {
	machineSvc, componentSvc, dispatcher := newMachineService(t)
	ctx := context.Background()

	var machineEvents []domain.MachineStateChangedEvent
	dispatcher.Subscribe(domain.EventTypeMachineStateChanged, func(ctx context.Context, e domain.Event) {
		if ev, ok := e.(domain.MachineStateChangedEvent); ok {
			machineEvents = append(machineEvents, ev)
		}
	})

	m, err := machineSvc.CreateMachine(ctx, domain.MachineTypeDataProcessor, "ingest", "test machine", "")
	require.NoError(t, err)
	assert.Equal(t, domain.MachineCreated, m.State())

	composite, err := componentSvc.CreateComposite(ctx, "ingest pipeline", domain.CompositePipeline)
	require.NoError(t, err)
	require.NoError(t, machineSvc.AddComposite(ctx, m.ID(), composite.ID()))

	require.NoError(t, machineSvc.Initialize(ctx, m.ID()))
	require.NoError(t, machineSvc.Start(ctx, m.ID()))

	got, err := machineSvc.GetMachine(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.MachineRunning, got.State())

	// Start activated the Ready composite.
	gotComposite, ok := got.GetComposite(composite.ID())
	require.True(t, ok)
	assert.Equal(t, domain.StateActive, gotComposite.State())

	require.NoError(t, machineSvc.Stop(ctx, m.ID()))
	require.NoError(t, machineSvc.Start(ctx, m.ID()))
	require.NoError(t, machineSvc.Pause(ctx, m.ID()))
	require.NoError(t, machineSvc.Resume(ctx, m.ID()))
	require.NoError(t, machineSvc.Stop(ctx, m.ID()))
	require.NoError(t, machineSvc.Destroy(ctx, m.ID()))

	got, err = machineSvc.GetMachine(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.MachineDestroyed, got.State())

	require.NotEmpty(t, machineEvents)
	first := machineEvents[0]
	assert.Equal(t, domain.MachineCreated, first.PreviousState())
	assert.Equal(t, domain.MachineReady, first.NewState())
	last := machineEvents[len(machineEvents)-1]
	assert.Equal(t, domain.MachineDestroyed, last.NewState())
}

func TestMachineService_InvalidOperation(t *testing.T) {
	machineSvc, _, _ := newMachineService(t)
	ctx := context.Background()

	m, err := machineSvc.CreateMachine(ctx, domain.MachineTypeStandard, "strict", "", "")
	require.NoError(t, err)

	// Start requires Ready or Stopped.
	err = machineSvc.Start(ctx, m.ID())
	var opErr *domain.InvalidOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "start", opErr.Operation)
}

func TestMachineService_ErrorRecovery(t *testing.T) {
	machineSvc, _, _ := newMachineService(t)
	ctx := context.Background()

	m, err := machineSvc.CreateMachine(ctx, domain.MachineTypeMonitoring, "fragile", "", "")
	require.NoError(t, err)
	require.NoError(t, machineSvc.Initialize(ctx, m.ID()))

	changed, err := machineSvc.SetErrorState(ctx, m.ID(), "downstream outage")
	require.NoError(t, err)
	assert.True(t, changed)

	// Setting the error state again is a no-op.
	changed, err = machineSvc.SetErrorState(ctx, m.ID(), "still down")
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, machineSvc.ResetFromError(ctx, m.ID()))
	got, err := machineSvc.GetMachine(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.MachineReady, got.State())
}

func TestMachineService_VersionGuard(t *testing.T) {
	machineSvc, _, _ := newMachineService(t)
	ctx := context.Background()

	m, err := machineSvc.CreateMachine(ctx, domain.MachineTypeStandard, "versioned", "", "1.0.0")
	require.NoError(t, err)
	require.NoError(t, machineSvc.Initialize(ctx, m.ID()))
	require.NoError(t, machineSvc.SetVersion(ctx, m.ID(), "1.1.0"))
	require.NoError(t, machineSvc.Start(ctx, m.ID()))

	// Running machines are not modifiable.
	err = machineSvc.SetVersion(ctx, m.ID(), "1.2.0")
	assert.Error(t, err)

	got, err := machineSvc.GetMachine(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", got.Version())
}

func TestMachineService_DeleteDestroysFirst(t *testing.T) {
	machineSvc, _, _ := newMachineService(t)
	ctx := context.Background()

	m, err := machineSvc.CreateMachine(ctx, domain.MachineTypeStandard, "doomed", "", "")
	require.NoError(t, err)
	require.NoError(t, machineSvc.DeleteMachine(ctx, m.ID()))

	_, err = machineSvc.GetMachine(ctx, m.ID())
	assert.ErrorIs(t, err, domain.ErrMachineNotFound)
}
