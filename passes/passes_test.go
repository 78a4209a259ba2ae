package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogOrdering(t *testing.T) {
	require.Len(t, Catalog, 11)
	for i, p := range Catalog {
		assert.Equal(t, i+1, p.Number, "pass %s out of order", p.Name)
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Purpose)
		require.NotEmpty(t, p.Phases)
		assert.Equal(t, PhaseScan, p.Phases[0], "pass %s must start with SCAN", p.Name)
		assert.Contains(t, p.Phases, PhaseSync, "pass %s must include SYNC", p.Name)
	}
}

func TestByName(t *testing.T) {
	p, err := ByName("synchronization")
	require.NoError(t, err)
	assert.Equal(t, 8, p.Number)

	p, err = ByName(" Foundation ")
	require.NoError(t, err)
	assert.Contains(t, p.Phases, PhaseConfirm)

	_, err = ByName("deployment")
	require.ErrorIs(t, err, ErrUnknownPass)
}

func TestNames(t *testing.T) {
	names := Names()
	require.Len(t, names, 11)
	assert.Equal(t, "requirements", names[0])
	assert.Equal(t, "reverse", names[10])
}
