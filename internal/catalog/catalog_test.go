package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 12, c.Len())
	assert.True(t, c.Has("pothole"))
	assert.True(t, c.Has("graffiti"))
	assert.True(t, c.Has("bulky_items"))

	rt, ok := c.Get("illegal_dumping")
	require.True(t, ok)
	assert.Equal(t, "Illegal Dumping Pickup", rt.DisplayName)
	assert.Equal(t, "#D62728", rt.Color)

	ids := c.IDs()
	assert.IsNonDecreasing(t, ids)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
requestTypes:
  - id: pothole
    displayName: Pothole
    color: "#FF0000"
  - id: graffiti
    displayName: Graffiti
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"graffiti", "pothole"}, c.IDs())
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, c.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read catalog")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", `requestTypes: []`, "no request types"},
		{"missing id", "requestTypes:\n  - displayName: X\n", "id is required"},
		{"duplicate", "requestTypes:\n  - {id: a, displayName: A}\n  - {id: a, displayName: B}\n", "duplicate id"},
		{"missing name", "requestTypes:\n  - id: a\n", "displayName is required"},
		{"bad color", "requestTypes:\n  - {id: a, displayName: A, color: red}\n", "invalid color"},
		{"unknown field", "requestTypes:\n  - {id: a, displayName: A, icon: x}\n", "decode catalog"},
		{"malformed", "requestTypes: [", "decode catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
