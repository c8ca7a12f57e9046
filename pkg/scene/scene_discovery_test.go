package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"blend-lab", "Blend Lab"},
		{"sphere_grid", "Sphere Grid"},
		{"my-custom-scene", "My Custom Scene"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := titleCase(tc.input)
			if result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestParseSceneMetadata(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected SceneInfo
	}{
		{
			name: "complete_metadata.yaml",
			content: `# Scene: Blob Lab
# Variant: Soft
# Description: Three spheres blended together
# Group: Blend Studies

name: blob
shapes: []`,
			expected: SceneInfo{
				ID:          "file:complete_metadata",
				Name:        "Blob Lab",
				DisplayName: "Blob Lab - Soft",
				Description: "Three spheres blended together",
				Group:       "Blend Studies",
				Type:        "file",
				Variant:     "Soft",
			},
		},
		{
			name: "partial_metadata.toml",
			content: `# Scene: Pair

name = "pair"`,
			expected: SceneInfo{
				ID:          "file:partial_metadata",
				Name:        "Pair",
				DisplayName: "Pair",
				Group:       "Scene Files",
				Type:        "file",
			},
		},
		{
			name:    "no-metadata.yml",
			content: "name: bare\n# Scene: ignored after the header\n",
			expected: SceneInfo{
				ID:          "file:no-metadata",
				Name:        "No Metadata",
				DisplayName: "No Metadata",
				Group:       "Scene Files",
				Type:        "file",
			},
		},
	}

	dir := t.TempDir()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			info, err := ParseSceneMetadata(path)
			require.NoError(t, err)

			tc.expected.FilePath = path
			assert.Equal(t, tc.expected, info)
		})
	}
}

func TestListSceneFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b-scene.yaml": "# Scene: Bravo\n",
		"a-scene.toml": "# Scene: Alpha\n",
		"notes.txt":    "# Scene: Not a scene\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	scenes, err := ListSceneFiles(dir)
	require.NoError(t, err)
	require.Len(t, scenes, 2)
	assert.Equal(t, "Alpha", scenes[0].DisplayName)
	assert.Equal(t, "Bravo", scenes[1].DisplayName)
}

func TestListSceneFiles_MissingDirectory(t *testing.T) {
	scenes, err := ListSceneFiles(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, scenes)
}

func TestListAllScenes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pair.yaml"),
		[]byte("# Scene: Pair\n# Group: Studies\n"), 0o644))

	response, err := ListAllScenes(dir)
	require.NoError(t, err)
	require.Len(t, response.Groups, 2)

	assert.Equal(t, "Built-in Scenes", response.Groups[0].Name)
	assert.Len(t, response.Groups[0].Scenes, len(ListBuiltInScenes()))
	assert.Equal(t, "Studies", response.Groups[1].Name)
	assert.Equal(t, "file:pair", response.Groups[1].Scenes[0].ID)
}

func TestCreate(t *testing.T) {
	s, err := Create("blend")
	require.NoError(t, err)
	assert.Equal(t, "blend", s.Name)

	_, err = Create("cornell")
	assert.Error(t, err)
}

func TestIsSceneFile(t *testing.T) {
	assert.True(t, IsSceneFile("a.yaml"))
	assert.True(t, IsSceneFile("a.YML"))
	assert.True(t, IsSceneFile("dir/a.toml"))
	assert.False(t, IsSceneFile("a.pbrt"))
	assert.False(t, IsSceneFile("yaml"))
}
