package loaders

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

// ErrUnknownScene is returned when a name matches neither a built-in scene
// nor a scene file
var ErrUnknownScene = errors.New("unknown scene")

// ResolveScene turns a scene reference into a scene. A reference is a path
// to a scene file, a built-in scene ID, or the name of a file in scenesDir
// with or without the "file:" prefix used by scene discovery. The returned
// path is empty for built-in scenes.
func ResolveScene(name, scenesDir string) (*scene.Scene, string, error) {
	if name == "" {
		return nil, "", fmt.Errorf("%w: empty scene name", ErrUnknownScene)
	}

	if scene.IsSceneFile(name) {
		s, err := LoadScene(name)
		if err != nil {
			return nil, "", err
		}
		return s, name, nil
	}

	if !strings.HasPrefix(name, "file:") {
		if s, err := scene.Create(name); err == nil {
			return s, "", nil
		}
	}

	base := strings.TrimPrefix(name, "file:")
	if scenesDir != "" && base != "" && !strings.ContainsAny(base, `/\`) {
		for _, ext := range scene.SceneFileExtensions {
			path := filepath.Join(scenesDir, base+ext)
			if _, err := os.Stat(path); err == nil {
				s, err := LoadScene(path)
				if err != nil {
					return nil, "", err
				}
				return s, path, nil
			}
		}
	}

	return nil, "", fmt.Errorf("%w: %q", ErrUnknownScene, name)
}
