package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to the scene file (file type only)
	Variant     string `json:"variant"`     // Optional variant name
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// SceneFileExtensions lists the extensions recognised as scene files
var SceneFileExtensions = []string{".yaml", ".yml", ".toml"}

type builtInScene struct {
	info   SceneInfo
	create func() *Scene
}

var builtInScenes = []builtInScene{
	{
		info: SceneInfo{
			ID:          "default",
			Name:        "Default Scene",
			Description: "Single orange sphere at the origin",
		},
		create: func() *Scene { return NewDefaultScene() },
	},
	{
		info: SceneInfo{
			ID:          "blend",
			Name:        "Blended Spheres",
			Description: "Spheres joined with smooth unions next to a hard-edged one",
		},
		create: func() *Scene { return NewBlendScene() },
	},
	{
		info: SceneInfo{
			ID:          "spheregrid",
			Name:        "Sphere Grid",
			Description: "10x10 grid of OKLCH-colored spheres",
		},
		create: func() *Scene { return NewSphereGridScene(10) },
	},
}

// Create builds a built-in scene by ID
func Create(id string) (*Scene, error) {
	for _, b := range builtInScenes {
		if b.info.ID == id {
			return b.create(), nil
		}
	}
	return nil, fmt.Errorf("unknown scene: %q", id)
}

// ListBuiltInScenes returns metadata for every built-in scene
func ListBuiltInScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtInScenes))
	for _, b := range builtInScenes {
		info := b.info
		info.DisplayName = info.Name
		info.Group = "Built-in Scenes"
		info.Type = "builtin"
		scenes = append(scenes, info)
	}
	return scenes
}

// IsSceneFile reports whether path has a scene file extension
func IsSceneFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SceneFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ListSceneFiles scans dir for YAML/TOML scene files. A missing directory
// is not an error and yields an empty list.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SceneInfo{}, nil
		}
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !IsSceneFile(entry.Name()) {
			continue
		}
		info, err := ParseSceneMetadata(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ParseSceneMetadata reads "# Scene:", "# Variant:", "# Description:" and
// "# Group:" header comments. YAML and TOML share the '#' comment syntax.
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:          "file:" + nameWithoutExt,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "Scene Files",
		Type:        "file",
		FilePath:    filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		return info, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			break
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		switch {
		case strings.HasPrefix(content, "Scene:"):
			info.Name = strings.TrimSpace(strings.TrimPrefix(content, "Scene:"))
		case strings.HasPrefix(content, "Variant:"):
			info.Variant = strings.TrimSpace(strings.TrimPrefix(content, "Variant:"))
		case strings.HasPrefix(content, "Description:"):
			info.Description = strings.TrimSpace(strings.TrimPrefix(content, "Description:"))
		case strings.HasPrefix(content, "Group:"):
			info.Group = strings.TrimSpace(strings.TrimPrefix(content, "Group:"))
		}
	}

	info.DisplayName = info.Name
	if info.Variant != "" {
		info.DisplayName = info.Name + " - " + info.Variant
	}
	return info, scanner.Err()
}

// ListAllScenes returns built-in scenes and scene files from dir, grouped
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	all := ListBuiltInScenes()
	files, err := ListSceneFiles(dir)
	if err != nil {
		return response, err
	}
	all = append(all, files...)

	groupIndex := make(map[string]int)
	for _, info := range all {
		idx, ok := groupIndex[info.Group]
		if !ok {
			idx = len(response.Groups)
			groupIndex[info.Group] = idx
			response.Groups = append(response.Groups, SceneGroup{Name: info.Group})
		}
		response.Groups[idx].Scenes = append(response.Groups[idx].Scenes, info)
	}
	return response, nil
}

// titleCase converts kebab or snake case to Title Case
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}
