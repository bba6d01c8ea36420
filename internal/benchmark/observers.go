package benchmark

import (
	"sync"

	"github.com/agbru/highscore/internal/logging"
)

// ProgressObserver receives progress before every sample. Update runs on the
// measuring goroutine, so it must return quickly.
type ProgressObserver interface {
	Update(p Progress)
}

// ObserverFunc adapts a plain function to ProgressObserver.
type ObserverFunc func(p Progress)

// Update calls f(p).
func (f ObserverFunc) Update(p Progress) { f(p) }

// ProgressSubject fans progress out to several observers in registration
// order. It is itself a ProgressObserver.
type ProgressSubject struct {
	observers []ProgressObserver
	mu        sync.RWMutex
}

// NewProgressSubject creates a subject with the given observers registered.
//
// Parameters:
//   - observers: Initial observers; nil entries are skipped.
//
// Returns:
//   - *ProgressSubject: The subject.
func NewProgressSubject(observers ...ProgressObserver) *ProgressSubject {
	s := &ProgressSubject{}
	for _, o := range observers {
		s.Register(o)
	}
	return s
}

// Register adds an observer. A nil observer is ignored.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// Update forwards p to every registered observer.
func (s *ProgressSubject) Update(p Progress) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		o.Update(snapshot(p))
	}
}

// LoggingObserver logs progress at debug level. Consecutive updates that
// differ only in sample count are logged only when the waiting heuristic
// changes or every `every` samples.
type LoggingObserver struct {
	logger logging.Logger
	every  int
	last   Kind
}

// NewLoggingObserver creates an observer writing to logger. every <= 0 logs
// every eighth sample.
func NewLoggingObserver(logger logging.Logger, every int) *LoggingObserver {
	if every <= 0 {
		every = 8
	}
	return &LoggingObserver{logger: logger, every: every}
}

// Update implements ProgressObserver.
func (o *LoggingObserver) Update(p Progress) {
	var kind Kind
	if p.Waiting != nil {
		kind = p.Waiting.Heuristic
	}
	if kind == o.last && p.SampleCount%o.every != 0 {
		return
	}
	o.last = kind
	fields := []logging.Field{
		logging.Int("samples", p.SampleCount),
		logging.Int("runs_per_sample", p.RunsPerSample),
	}
	if kind != "" {
		fields = append(fields, logging.String("waiting", string(kind)))
	}
	o.logger.Debug("progress", fields...)
}

// NoOpObserver discards all updates.
type NoOpObserver struct{}

// Update does nothing.
func (NoOpObserver) Update(Progress) {}
