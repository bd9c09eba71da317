package dataset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"go.uber.org/zap"
)

// LoadObserver is told about every load that actually touched the file system
type LoadObserver func(fileName string, took time.Duration, err error)

// Loader reads data files from one directory and memoizes every table it
// parses successfully, keyed by file name. Failed loads are not remembered,
// so a corrected file is picked up by the next call.
type Loader struct {
	fsys     fs.FS
	dir      string
	logger   *zap.SugaredLogger
	observer LoadObserver

	mu     sync.Mutex
	tables map[string]*Table
}

// ExecutableDir returns the directory holding the running binary, with
// symlinks resolved, so data files are found independently of the working
// directory the dashboard was started from.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// NewLoader creates a loader rooted at dir
func NewLoader(dir string, logger *zap.SugaredLogger) *Loader {
	return NewLoaderFS(os.DirFS(dir), dir, logger)
}

// NewLoaderFS creates a loader over an arbitrary file system. dir is only
// used to describe the location in messages.
func NewLoaderFS(fsys fs.FS, dir string, logger *zap.SugaredLogger) *Loader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Loader{
		fsys:   fsys,
		dir:    dir,
		logger: logger,
		tables: make(map[string]*Table),
	}
}

// SetObserver registers fn to be called after each uncached load
func (l *Loader) SetObserver(fn LoadObserver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = fn
}

// Dir is the directory data files are resolved against
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the table for fileName, parsing the file only on first use.
// A missing file yields a *FileNotFoundError, anything else a *LoadError.
func (l *Loader) Load(fileName string) (*Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.tables[fileName]; ok {
		return t, nil
	}

	start := time.Now()
	t, err := l.read(fileName)
	took := time.Since(start)
	if l.observer != nil {
		l.observer(fileName, took, err)
	}
	if err != nil {
		l.logger.Warnf("loading %s from %s failed: %v", fileName, l.dir, err)
		return nil, err
	}

	l.logger.Infow("data file loaded",
		"file", fileName,
		"dir", l.dir,
		"rows", t.Len(),
		"columns", len(t.Columns()),
		"duration_ms", took.Milliseconds(),
	)
	l.tables[fileName] = t
	return t, nil
}

// Cached reports whether fileName is memoized
func (l *Loader) Cached(fileName string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.tables[fileName]
	return ok
}

// Forget drops the memoized table for fileName
func (l *Loader) Forget(fileName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tables, fileName)
}

// Reset drops every memoized table
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tables = make(map[string]*Table)
}

func (l *Loader) read(fileName string) (*Table, error) {
	if !fs.ValidPath(fileName) {
		return nil, &LoadError{Name: fileName, Err: fmt.Errorf("invalid file name")}
	}

	f, err := l.fsys.Open(fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileNotFoundError{Name: fileName, Dir: l.dir}
		}
		return nil, &LoadError{Name: fileName, Err: err}
	}
	defer f.Close()

	t, err := Parse(f, fileName)
	if err != nil {
		return nil, &LoadError{Name: fileName, Err: err}
	}
	return t, nil
}

// Parse reads a CSV with a header row from r
func Parse(r io.Reader, source string) (*Table, error) {
	frame := dataframe.ReadCSV(r, loadOptions()...)
	return build(source, frame)
}
