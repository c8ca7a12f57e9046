package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

// reloadDelay coalesces the burst of events editors emit for one save
const reloadDelay = 100 * time.Millisecond

// SceneWatcher reloads a scene file whenever it changes on disk.
// The parent directory is watched so that editors which save by
// rename-and-replace are still noticed.
type SceneWatcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewSceneWatcher starts watching path. Events that happen after it returns
// are guaranteed to be seen by Run.
func NewSceneWatcher(path string) (*SceneWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scene path: %w", err)
	}
	if _, err := FormatFromPath(abs); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &SceneWatcher{path: abs, watcher: watcher}, nil
}

// Path returns the absolute path being watched
func (sw *SceneWatcher) Path() string {
	return sw.path
}

// Run calls onChange with the reloaded scene, or the load error, after every
// change to the file. It returns when ctx is done or the watcher fails, and
// closes the watcher on return.
func (sw *SceneWatcher) Run(ctx context.Context, onChange func(*scene.Scene, error)) error {
	defer sw.watcher.Close()

	timer := time.NewTimer(reloadDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != sw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(reloadDelay)
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("scene watcher: %w", err)

		case <-timer.C:
			onChange(LoadScene(sw.path))
		}
	}
}

// Close stops watching without waiting for Run
func (sw *SceneWatcher) Close() error {
	return sw.watcher.Close()
}

// WatchScene watches path and blocks until ctx is done
func WatchScene(ctx context.Context, path string, onChange func(*scene.Scene, error)) error {
	sw, err := NewSceneWatcher(path)
	if err != nil {
		return err
	}
	return sw.Run(ctx, onChange)
}
