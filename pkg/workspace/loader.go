// Package workspace seeds the global word index from files on disk and keeps
// it current as those files change.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/bastiangx/hippie/internal/logger"
	"github.com/bastiangx/hippie/internal/utils"
	"github.com/bastiangx/hippie/pkg/index"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
)

// Options selects which files are indexed.
type Options struct {
	Include      []string
	Exclude      []string
	MaxFileBytes int64
}

// LoadStats summarizes a LoadDir run.
type LoadStats struct {
	Indexed  int
	Skipped  int
	TooLarge int
	Failed   int
	Duration time.Duration
}

// Loader reads files into an index's global buffers, keyed by path.
type Loader struct {
	idx    *index.Index
	opts   Options
	logger *log.Logger
}

// NewLoader creates a loader for idx.
func NewLoader(idx *index.Index, opts Options) *Loader {
	return &Loader{
		idx:    idx,
		opts:   opts,
		logger: logger.New("workspace"),
	}
}

// Index returns the index the loader writes to.
func (l *Loader) Index() *index.Index {
	return l.idx
}

// Match reports whether rel, a slash-separated path relative to the
// workspace root, passes the include and exclude globs.
func (l *Loader) Match(rel string) bool {
	return l.included(rel) && !l.excluded(rel)
}

func (l *Loader) included(rel string) bool {
	if len(l.opts.Include) == 0 {
		return true
	}
	for _, pattern := range l.opts.Include {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func (l *Loader) excluded(rel string) bool {
	for _, pattern := range l.opts.Exclude {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			l.logger.Debugf("bad exclude pattern %q: %v", pattern, err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// skipDir prunes directories whose contents would all be excluded. Files
// are still checked individually, so a miss here only costs time.
func (l *Loader) skipDir(rel string) bool {
	return rel != "." && (l.excluded(rel) || l.excluded(rel+"/"))
}

// LoadFile indexes one file under its path.
func (l *Loader) LoadFile(path string) error {
	text, err := utils.ReadFileLimited(path, l.opts.MaxFileBytes)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	l.idx.RefreshGlobal(path, text)
	return nil
}

// LoadDir walks root and indexes every matching file. Unreadable files do
// not stop the walk; their errors are returned together. Files above the size
// limit are counted and skipped silently.
func (l *Loader) LoadDir(ctx context.Context, root string) (LoadStats, error) {
	start := time.Now()
	var stats LoadStats
	var result *multierror.Error

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			result = multierror.Append(result, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			result = multierror.Append(result, relErr)
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if l.skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !l.Match(rel) {
			stats.Skipped++
			return nil
		}

		if err := l.LoadFile(path); err != nil {
			if errors.Is(err, utils.ErrFileTooLarge) {
				stats.TooLarge++
				return nil
			}
			stats.Failed++
			result = multierror.Append(result, err)
			return nil
		}
		stats.Indexed++
		return nil
	})
	if walkErr != nil {
		result = multierror.Append(result, walkErr)
	}

	stats.Duration = time.Since(start)
	l.logger.Debugf("Indexed %d files under %s in %v (%d skipped, %d too large, %d failed)",
		stats.Indexed, root, stats.Duration, stats.Skipped, stats.TooLarge, stats.Failed)
	return stats, result.ErrorOrNil()
}
