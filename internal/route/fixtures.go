package route

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var fixtureFS embed.FS

// Definition is a named route as stored in a fixture file.
type Definition struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Waypoints   []Waypoint `yaml:"waypoints"`
}

// Projector validates the definition and returns a projector for it.
func (d Definition) Projector() (*Projector, error) {
	p, err := NewProjector(d.Waypoints)
	if err != nil {
		return nil, fmt.Errorf("route %q: %w", d.Name, err)
	}
	return p, nil
}

// FixtureNames lists the bundled reference routes.
func FixtureNames() []string {
	entries, _ := fixtureFS.ReadDir("fixtures")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Fixture loads a bundled reference route by name, e.g. "primary-corridor".
func Fixture(name string) (Definition, error) {
	raw, err := fixtureFS.ReadFile(path.Join("fixtures", name+".yaml"))
	if err != nil {
		return Definition{}, fmt.Errorf("unknown fixture %q: %w", name, err)
	}
	return ParseDefinition(raw)
}

// ParseDefinition decodes a YAML route definition.
func ParseDefinition(raw []byte) (Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Definition{}, fmt.Errorf("decode route definition: %w", err)
	}
	return d, nil
}
