package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s8r-framework/s8r/pkg/domain"
)

// RunComponentRepositoryContract verifies that a ComponentRepository
// implementation adheres to the interface contract. Adapter test
// packages call it against their own construction.
func RunComponentRepositoryContract(t *testing.T, repo ComponentRepository) {
	ctx := context.Background()

	t.Run("save and find", func(t *testing.T) {
		c, err := domain.NewComponentOfType(domain.NewComponentID("contract save"), domain.TypeProcessor)
		require.NoError(t, err)
		c.SetProperty("region", "us-east-1")

		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByID(ctx, c.ID())
		require.NoError(t, err)
		assert.True(t, found.ID().Equals(c.ID()))
		assert.Equal(t, domain.TypeProcessor, found.Type())
		assert.Equal(t, domain.StateReady, found.State())
		v, ok := found.Property("region")
		require.True(t, ok)
		assert.Equal(t, "us-east-1", v)
	})

	t.Run("find missing", func(t *testing.T) {
		_, err := repo.FindByID(ctx, domain.NewComponentID("missing"))
		assert.ErrorIs(t, err, domain.ErrComponentNotFound)
	})

	t.Run("children by lineage", func(t *testing.T) {
		parent, err := domain.NewComponent(domain.NewComponentID("contract parent"))
		require.NoError(t, err)
		child, err := domain.NewComponent(parent.ID().ChildID("contract child"))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, parent))
		require.NoError(t, repo.Save(ctx, child))

		children, err := repo.FindChildren(ctx, parent.ID())
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.True(t, children[0].ID().Equals(child.ID()))
	})

	t.Run("composite round trip", func(t *testing.T) {
		comp, err := domain.NewComposite(domain.NewComponentID("contract composite"), domain.CompositePipeline)
		require.NoError(t, err)
		a, err := domain.NewComponent(domain.NewComponentID("member a"))
		require.NoError(t, err)
		b, err := domain.NewComponent(domain.NewComponentID("member b"))
		require.NoError(t, err)
		require.NoError(t, comp.AddComponent(a))
		require.NoError(t, comp.AddComponent(b))
		_, err = comp.Connect(a.ID(), b.ID(), domain.ConnectionDataFlow, "a feeds b")
		require.NoError(t, err)

		require.NoError(t, repo.SaveComposite(ctx, comp))

		found, err := repo.FindCompositeByID(ctx, comp.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.CompositePipeline, found.CompositeType())
		assert.Len(t, found.Components(), 2)
		assert.Len(t, found.Connections(), 1)
		assert.True(t, found.ContainsComponent(a.ID()))

		// A plain component lookup also resolves the composite.
		asComponent, err := repo.FindByID(ctx, comp.ID())
		require.NoError(t, err)
		assert.True(t, asComponent.ID().Equals(comp.ID()))
	})

	t.Run("composite missing", func(t *testing.T) {
		_, err := repo.FindCompositeByID(ctx, domain.NewComponentID("missing composite"))
		assert.ErrorIs(t, err, domain.ErrComponentNotFound)
	})

	t.Run("find all", func(t *testing.T) {
		before, err := repo.FindAll(ctx)
		require.NoError(t, err)
		c, err := domain.NewComponent(domain.NewComponentID("contract find all"))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		after, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before)+1)
	})

	t.Run("read isolation", func(t *testing.T) {
		c, err := domain.NewComponent(domain.NewComponentID("contract isolation"))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		first, err := repo.FindByID(ctx, c.ID())
		require.NoError(t, err)
		first.SetProperty("scratch", "local")
		require.NoError(t, first.Activate())

		// Unsaved mutations stay with the caller.
		second, err := repo.FindByID(ctx, c.ID())
		require.NoError(t, err)
		_, ok := second.Property("scratch")
		assert.False(t, ok)
		assert.Equal(t, domain.StateReady, second.State())

		require.NoError(t, repo.Save(ctx, first))
		third, err := repo.FindByID(ctx, c.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.StateActive, third.State())
	})

	t.Run("delete", func(t *testing.T) {
		c, err := domain.NewComponent(domain.NewComponentID("contract delete"))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		require.NoError(t, repo.Delete(ctx, c.ID()))
		_, err = repo.FindByID(ctx, c.ID())
		assert.ErrorIs(t, err, domain.ErrComponentNotFound)

		err = repo.Delete(ctx, c.ID())
		assert.ErrorIs(t, err, domain.ErrComponentNotFound)
	})
}

// RunMachineRepositoryContract verifies that a MachineRepository
// implementation adheres to the interface contract.
func RunMachineRepositoryContract(t *testing.T, repo MachineRepository) {
	ctx := context.Background()

	t.Run("save and find", func(t *testing.T) {
		m, err := domain.NewMachine(domain.NewComponentID("contract machine"),
			domain.MachineTypeDataProcessor, "ingest", "contract test machine", "2.1.0")
		require.NoError(t, err)
		require.NoError(t, m.Initialize())

		require.NoError(t, repo.Save(ctx, m))

		found, err := repo.FindByID(ctx, m.ID())
		require.NoError(t, err)
		assert.Equal(t, "ingest", found.Name())
		assert.Equal(t, domain.MachineTypeDataProcessor, found.Type())
		assert.Equal(t, domain.MachineReady, found.State())
		assert.Equal(t, "2.1.0", found.Version())
	})

	t.Run("find missing", func(t *testing.T) {
		_, err := repo.FindByID(ctx, domain.NewComponentID("missing machine"))
		assert.ErrorIs(t, err, domain.ErrMachineNotFound)
	})

	t.Run("read isolation", func(t *testing.T) {
		m, err := domain.NewMachine(domain.NewComponentID("contract machine isolation"),
			domain.MachineTypeStandard, "iso", "", "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, m))

		first, err := repo.FindByID(ctx, m.ID())
		require.NoError(t, err)
		require.NoError(t, first.Initialize())

		second, err := repo.FindByID(ctx, m.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.MachineCreated, second.State())
	})

	t.Run("find all and delete", func(t *testing.T) {
		m, err := domain.NewMachine(domain.NewComponentID("contract machine 2"),
			domain.MachineTypeStandard, "aux", "", "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, m))

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, all)

		require.NoError(t, repo.Delete(ctx, m.ID()))
		_, err = repo.FindByID(ctx, m.ID())
		assert.ErrorIs(t, err, domain.ErrMachineNotFound)
	})
}
