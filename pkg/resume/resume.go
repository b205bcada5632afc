package resume

import (
	"encoding/json"
	"iter"
	"sync"

	"pickmeup/pkg/checkpoint"
	"pickmeup/pkg/errors"
	"pickmeup/pkg/logger"
)

// activeRuns tracks run names with a live Run in this process, keyed by
// the record's file path. Two live Runs over the same record would race
// on their saves, so the second Begin is rejected.
var (
	activeMu   sync.Mutex
	activeRuns = make(map[string]struct{})
)

func acquire(key, name string) error {
	activeMu.Lock()
	defer activeMu.Unlock()
	if _, ok := activeRuns[key]; ok {
		return errors.Newf(errors.ErrorTypeNameInUse, "run %q is already active in this process", name)
	}
	activeRuns[key] = struct{}{}
	return nil
}

func release(key string) {
	activeMu.Lock()
	defer activeMu.Unlock()
	delete(activeRuns, key)
}

// Run iterates a checkpointed sequence of elements. Callers drive it like
// a bufio.Scanner:
//
//	run, err := resume.Begin(store, "my-task", elements)
//	if err != nil {
//		return err
//	}
//	defer run.Close()
//	for run.Next() {
//		if err := process(run.Element()); err != nil {
//			return err // record kept, next Begin resumes here
//		}
//	}
//	return run.Err()
//
// Before an element is handed out, the persisted record still lists it as
// remaining, so a crash while the caller processes it resumes at that
// element. When the sequence is exhausted Next clears the record and
// returns false; stopping early, for any reason, leaves the record intact
// for the next Begin.
type Run[T any] struct {
	store    *checkpoint.Store
	name     string
	raw      []json.RawMessage
	elements []T
	next     int
	current  T
	err      error
	resumed  bool
	done     bool
	released bool
	logger   logger.Logger
}

// Begin acquires a run over source. If a record for name exists the run
// resumes from the persisted remainder and source is ignored; callers that
// change source between runs without clearing the record silently iterate
// the stale remainder. Otherwise the full source is serialized and
// persisted before the first element can be yielded, so even a run aborted
// before its first step leaves a complete snapshot behind.
func Begin[T any](store *checkpoint.Store, name string, source []T) (*Run[T], error) {
	if err := checkpoint.ValidateName(name); err != nil {
		return nil, err
	}

	key := store.Path(name)
	if err := acquire(key, name); err != nil {
		return nil, err
	}

	run, err := begin(store, name, source)
	if err != nil {
		release(key)
		return nil, err
	}
	return run, nil
}

func begin[T any](store *checkpoint.Store, name string, source []T) (*Run[T], error) {
	log := logger.GetLogger().WithField("name", name)

	record, err := store.Load(name)
	if err != nil {
		return nil, err
	}

	run := &Run[T]{
		store:  store,
		name:   name,
		logger: log,
	}

	if record != nil {
		elements, err := decodeElements[T](record.Remaining)
		if err != nil {
			return nil, err
		}
		run.raw = record.Remaining
		run.elements = elements
		run.resumed = true
		log.WithField("remaining", len(elements)).Info("Resuming interrupted run")
		return run, nil
	}

	raw, err := encodeElements(source)
	if err != nil {
		return nil, err
	}
	if err := store.Save(name, raw); err != nil {
		return nil, err
	}
	run.raw = raw
	run.elements = append([]T(nil), source...)
	log.WithField("elements", len(source)).Info("Starting fresh run")
	return run, nil
}

// BeginSeq drains a single-pass sequence into memory and then behaves like
// Begin. The full realization and storage cost is paid up front, before
// the first element is yielded, regardless of how far processing proceeds.
// The sequence must be finite.
func BeginSeq[T any](store *checkpoint.Store, name string, source iter.Seq[T]) (*Run[T], error) {
	var elements []T
	for e := range source {
		elements = append(elements, e)
	}
	return Begin(store, name, elements)
}

// Next advances to the next element, persisting the shrunk remainder
// first. It returns false when the sequence is exhausted, after clearing
// the record, or when persisting fails; Err distinguishes the two.
func (r *Run[T]) Next() bool {
	if r.err != nil || r.done {
		return false
	}

	if r.next >= len(r.elements) {
		if err := r.store.Clear(r.name); err != nil {
			r.err = err
			return false
		}
		r.done = true
		r.release()
		r.logger.Info("Run completed, checkpoint cleared")
		return false
	}

	// The element yielded by the previous Next is now confirmed
	// processed; shrink the record before handing out the next one. The
	// record therefore always includes the element currently being
	// processed. On the first Next the record already matches: Begin
	// persisted the full snapshot or loaded the remainder as-is.
	if r.next > 0 {
		if err := r.store.Save(r.name, r.raw[r.next:]); err != nil {
			r.err = err
			return false
		}
	}

	r.current = r.elements[r.next]
	r.next++
	return true
}

// Element returns the element yielded by the last successful Next.
func (r *Run[T]) Element() T {
	return r.current
}

// Err returns the first persistence error encountered by Next, if any.
// Errors from the caller's own processing are never seen here; they
// simply stop the loop and leave the record intact.
func (r *Run[T]) Err() error {
	return r.err
}

// Resumed reports whether this run picked up a persisted remainder rather
// than starting fresh.
func (r *Run[T]) Resumed() bool {
	return r.resumed
}

// Remaining returns the number of elements not yet yielded.
func (r *Run[T]) Remaining() int {
	return len(r.elements) - r.next
}

// Close releases the run's in-process name registration. It never touches
// the persisted record: an aborted run's checkpoint survives for the next
// Begin. Close after normal exhaustion is a no-op.
func (r *Run[T]) Close() error {
	r.release()
	return nil
}

func (r *Run[T]) release() {
	if r.released {
		return
	}
	r.released = true
	release(r.store.Path(r.name))
}

// ForEach runs fn over every element of a checkpointed run. An error from
// fn stops iteration and is returned unchanged, leaving the checkpoint
// intact; on clean exhaustion the checkpoint is cleared and any
// persistence error is returned.
func ForEach[T any](store *checkpoint.Store, name string, source []T, fn func(T) error) error {
	run, err := Begin(store, name, source)
	if err != nil {
		return err
	}
	defer run.Close()

	for run.Next() {
		if err := fn(run.Element()); err != nil {
			return err
		}
	}
	return run.Err()
}

// ForEachSeq is ForEach over a single-pass sequence, drained up front as
// in BeginSeq.
func ForEachSeq[T any](store *checkpoint.Store, name string, source iter.Seq[T], fn func(T) error) error {
	var elements []T
	for e := range source {
		elements = append(elements, e)
	}
	return ForEach(store, name, elements, fn)
}
