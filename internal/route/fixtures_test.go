package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtureNames(t *testing.T) {
	assert.Equal(t, []string{"northern-spur", "primary-corridor"}, FixtureNames())
}

func TestFixturesAreValidRoutes(t *testing.T) {
	for _, name := range FixtureNames() {
		def, err := Fixture(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, def.Name)
		assert.NotEmpty(t, def.Description)

		p, err := def.Projector()
		require.NoError(t, err, name)
		assert.Equal(t, 0.0, p.StartChainage())
		// chainage was surveyed from the same centreline
		assert.InDelta(t, p.EndChainage(), p.LengthMetres(), 5, name)
	}
}

func TestFixtureUnknown(t *testing.T) {
	_, err := Fixture("southern-loop")
	assert.Error(t, err)
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(`
name: test
waypoints:
  - {name: a, lat: 53.0, lon: -113.0, kp: 0}
  - {name: b, lat: 53.1, lon: -113.0, kp: 11119}
`))
	require.NoError(t, err)
	require.Len(t, def.Waypoints, 2)
	assert.Equal(t, 11119.0, def.Waypoints[1].Chainage)

	_, err = ParseDefinition([]byte("waypoints: ["))
	assert.Error(t, err)

	_, err = Definition{Name: "short", Waypoints: def.Waypoints[:1]}.Projector()
	assert.ErrorIs(t, err, ErrInvalidRoute)
}
