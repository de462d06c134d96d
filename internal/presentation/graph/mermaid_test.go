package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s8r-framework/s8r/pkg/domain"
)

func buildComposite(t *testing.T) (*domain.Composite, *domain.Component, *domain.Component) {
	t.Helper()

	composite, err := domain.NewComposite(domain.NewComponentID("pipeline"), domain.CompositePipeline)
	require.NoError(t, err)

	source, err := domain.NewComponentOfType(domain.NewComponentID("source"), domain.TypeProcessor)
	require.NoError(t, err)
	sink, err := domain.NewComponentOfType(domain.NewComponentID("sink"), domain.TypeObserver)
	require.NoError(t, err)

	require.NoError(t, composite.AddComponent(source))
	require.NoError(t, composite.AddComponent(sink))

	_, err = composite.Connect(source.ID(), sink.ID(), domain.ConnectionDataFlow, "")
	require.NoError(t, err)

	return composite, source, sink
}

func TestGenerateMermaid(t *testing.T) {
	composite, source, sink := buildComposite(t)

	out := GenerateMermaid(composite)

	assert.Contains(t, out, "graph TD")
	// Processor renders as a subroutine, observer as a parallelogram.
	assert.Contains(t, out, `[["source"]]`)
	assert.Contains(t, out, `[/"sink"/]`)
	assert.Contains(t, out, sanitizeMermaidID(source.ID().ShortID()))
	assert.Contains(t, out, sanitizeMermaidID(sink.ID().ShortID()))
	assert.Contains(t, out, `-- "data_flow" -->`)
}

func TestGenerateMermaidInactiveConnection(t *testing.T) {
	composite, _, _ := buildComposite(t)
	for _, conn := range composite.Connections() {
		conn.Deactivate()
	}

	out := GenerateMermaid(composite)

	assert.Contains(t, out, `-. "data_flow" .->`)
	assert.NotContains(t, out, `-- "data_flow" -->`)
}

func TestGenerateMermaidStateOverlay(t *testing.T) {
	composite, source, _ := buildComposite(t)
	require.NoError(t, source.TransitionTo(domain.StateActive, "test"))

	out := GenerateMermaid(composite)

	assert.Contains(t, out, "classDef active")
	assert.Contains(t, out, "class "+sanitizeMermaidID(source.ID().ShortID())+" active;")
}

func TestGenerateMachineMermaid(t *testing.T) {
	composite, _, _ := buildComposite(t)

	machine, err := domain.NewMachine(domain.NewComponentID("machine: demo"), domain.MachineTypeDataProcessor, "demo", "", "1.0.0")
	require.NoError(t, err)
	require.NoError(t, machine.AddComposite(composite))

	out := GenerateMachineMermaid(machine)

	assert.Contains(t, out, "subgraph")
	assert.Contains(t, out, `"pipeline"`)
	assert.Contains(t, out, "end\n")
}

func TestSanitizeMermaidID(t *testing.T) {
	assert.Equal(t, "a_b_c_d", sanitizeMermaidID("a.b-c/d"))
}
