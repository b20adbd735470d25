package main

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jacoelho/xinclude"
	"github.com/jacoelho/xinclude/internal/validity"
)

const debounce = 100 * time.Millisecond

// watchPaths returns the local files behind the document and its dependencies.
// Sources outside of root, or with a scheme other than file, are skipped.
func watchPaths(root, location string, tokens []xinclude.ValidityToken) []string {
	sources := append([]string{location}, validity.Sources(tokens)...)
	seen := make(map[string]bool, len(sources))
	var out []string
	for _, src := range sources {
		u, err := url.Parse(src)
		if err != nil || (u.Scheme != "" && u.Scheme != "file") || !strings.HasPrefix(u.Path, "/") {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(u.Path, "/")))
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	return out
}

// watch calls rerun whenever one of paths changes, until ctx is done.
// Parent directories are watched so files replaced by rename are still seen.
// rerun returns the paths to watch from then on.
func watch(ctx context.Context, logger *zap.Logger, paths []string, rerun func() []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dirs := make(map[string]bool)
	tracked := make(map[string]bool)
	track := func(paths []string) {
		clear(tracked)
		for _, path := range paths {
			tracked[filepath.Clean(path)] = true
			dir := filepath.Dir(path)
			if dirs[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
				continue
			}
			dirs[dir] = true
		}
		logger.Debug("watching dependencies", zap.Int("files", len(tracked)), zap.Int("dirs", len(dirs)))
	}
	track(paths)

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !tracked[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("dependency changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			track(rerun())
		}
	}
}
