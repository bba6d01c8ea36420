package history

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/highscore/internal/logging"
)

// loaded is the outcome of reading one log.
type loaded struct {
	log *Log
	err error
}

// Store gives access to the logs of a directory and caches them. A log that
// failed to load keeps failing for the lifetime of the store; other logs are
// unaffected.
type Store struct {
	dir    string
	logger logging.Logger

	mu   sync.Mutex
	logs map[string]loaded
}

// NewStore returns a store for the logs in dir.
func NewStore(dir string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{dir: dir, logger: logger, logs: make(map[string]loaded)}
}

// Dir returns the directory the store reads and writes.
func (s *Store) Dir() string { return s.dir }

// Path returns the log file of a benchmark.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, FileName(name))
}

// Preload reads the logs of names concurrently so that no file I/O happens
// between measurements. Per-log failures are remembered and returned by Get;
// Preload itself only fails when ctx is cancelled.
//
// Parameters:
//   - ctx: Cancels loading.
//   - names: The benchmarks whose logs to read.
//
// Returns:
//   - error: The context error, if any.
func (s *Store) Preload(ctx context.Context, names []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, _ = s.Get(name)
			return nil
		})
	}
	return g.Wait()
}

// Get returns the log of a benchmark, loading it on first use.
func (s *Store) Get(name string) (*Log, error) {
	s.mu.Lock()
	if l, ok := s.logs[name]; ok {
		s.mu.Unlock()
		return l.log, l.err
	}
	s.mu.Unlock()

	path := s.Path(name)
	log, err := Load(path, name)
	if err != nil {
		s.logger.Warn("history unavailable", logging.String("benchmark", name), logging.String("path", path), logging.Err(err))
	} else {
		s.logger.Debug("history loaded", logging.String("benchmark", name), logging.Int("entries", len(log.Entries)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.logs[name]; ok {
		return l.log, l.err
	}
	s.logs[name] = loaded{log: log, err: err}
	return log, err
}

// Baseline returns the baseline entry of a benchmark, or nil when it has
// none.
func (s *Store) Baseline(name string) (*Entry, error) {
	log, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return log.Baseline(), nil
}

// Record appends e to the benchmark's log and saves it.
//
// Parameters:
//   - name: The benchmark name.
//   - e: The entry to append.
//   - markBaseline: Whether e becomes the baseline.
//
// Returns:
//   - error: A load or save error. The cached log is only replaced once the
//     save succeeds.
func (s *Store) Record(name string, e Entry, markBaseline bool) error {
	if _, err := s.Get(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.logs[name].log.clone()
	next.Append(e, markBaseline)
	path := s.Path(name)
	if err := next.Save(path); err != nil {
		return err
	}
	s.logs[name] = loaded{log: next}
	s.logger.Debug("history saved", logging.String("benchmark", name), logging.String("path", path), logging.Bool("baseline", markBaseline))
	return nil
}
