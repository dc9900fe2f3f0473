// Package filesystem reads documents from a local input directory and
// watches it for changes with fsnotify.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// ConnectorType is the connector type identifier.
const ConnectorType = "filesystem"

// maxFileSize bounds how much of a single file is read into memory.
const maxFileSize = 64 << 20

var knownMIME = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".pdf":      "application/pdf",
	".json":     "application/json",
	".csv":      "text/csv",
}

// Connector scans a directory tree.
type Connector struct {
	rootPath string
	source   string
	accept   func(name string) bool
	watcher  *fsnotify.Watcher
}

// Option configures the connector.
type Option func(*Connector)

// WithFilter keeps only files for which accept returns true.
func WithFilter(accept func(name string) bool) Option {
	return func(c *Connector) {
		c.accept = accept
	}
}

// WithSource sets the Source recorded on emitted documents. Defaults to "file".
func WithSource(source string) Option {
	return func(c *Connector) {
		c.source = source
	}
}

// New creates a connector rooted at rootPath.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{
		rootPath: ResolvePath(rootPath),
		source:   "file",
		accept:   func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return ConnectorType
}

// Root returns the scanned directory.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks the root exists and is a directory.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.rootPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: root path does not exist: %s", domain.ErrInvalidInput, c.rootPath)
	}
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root path is not a directory: %s", domain.ErrInvalidInput, c.rootPath)
	}
	return nil
}

// FullSync emits every visible, accepted file under the root.
// Unreadable files are reported on the error channel and the walk continues.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		walkErr := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				logger.Warn("filesystem: skipping %s: %v", path, err)
				return nil
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !c.accept(d.Name()) {
				return nil
			}

			raw, err := c.readFile(path)
			if err != nil {
				logger.Warn("filesystem: %v", err)
				return nil
			}
			select {
			case docs <- *raw:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
			errs <- walkErr
		}
	}()

	return docs, errs
}

// Watch emits file changes under the root until ctx is cancelled.
// Directories created after the watch starts are added automatically.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	c.watcher = watcher

	if err := c.addTree(c.rootPath); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	changes := make(chan domain.RawDocumentChange)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
						if err := c.addTree(event.Name); err != nil {
							logger.Warn("filesystem: watch %s: %v", event.Name, err)
						}
						continue
					}
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem: watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close releases the watcher, if any.
func (c *Connector) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// handleFsEvent converts an fsnotify event into a change.
// It returns nil for events that should be ignored.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	name := filepath.Base(event.Name)
	if isHidden(name) || !c.accept(name) {
		return nil
	}

	var changeType domain.ChangeType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{URI: event.Name, Name: name, Source: c.source},
		}
	case event.Has(fsnotify.Create):
		changeType = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		changeType = domain.ChangeUpdated
	default:
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return nil
	}
	raw, err := c.readFile(event.Name)
	if err != nil {
		logger.Warn("filesystem: %v", err)
		return nil
	}
	return &domain.RawDocumentChange{Type: changeType, Document: *raw}
}

func (c *Connector) readFile(path string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%s: file exceeds %d bytes", path, maxFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &domain.RawDocument{
		URI:      path,
		Name:     filepath.Base(path),
		MIMEType: MIMEType(path),
		Content:  content,
		Source:   c.source,
	}, nil
}

func (c *Connector) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := c.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// MIMEType guesses a file's content type from its extension.
func MIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if m, ok := knownMIME[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	return "application/octet-stream"
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
