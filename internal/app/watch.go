package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/matrixgen/internal/emit"
)

// debounceDelay coalesces bursts of file events (editors typically fire
// several per save) into a single regeneration.
const debounceDelay = 500 * time.Millisecond

// watch regenerates the output whenever a specification file changes,
// until the context is cancelled. A generation failure is logged, not
// fatal: the operator is mid-edit and the next save gets another chance.
func (a *App) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	root := a.config.SpecPath
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat spec path: %w", err)
	}
	if !info.IsDir() {
		root = filepath.Dir(root)
	}
	if err := watcher.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	a.logger.Info("Watching specification for changes.", "path", root)

	var debounce *time.Timer
	regen := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Watch stopped.")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".hcl") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			a.logger.Debug("Specification change detected.", "file", event.Name, "op", event.Op.String())
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case regen <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("Watcher error.", "error", err)

		case <-regen:
			document, err := a.generate(ctx)
			if err != nil {
				a.logger.Error("Regeneration failed; keeping previous output.", "error", err)
				continue
			}
			if err := emit.Write(a.config.OutPath, document); err != nil {
				a.logger.Error("Failed to write regenerated document.", "error", err)
				continue
			}
			a.logger.Info("Workflow document regenerated.", "path", a.config.OutPath, "bytes", len(document))
		}
	}
}
