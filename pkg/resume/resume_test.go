package resume

import (
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickmeup/pkg/checkpoint"
	"pickmeup/pkg/errors"
)

func newStore(t *testing.T) *checkpoint.Store {
	t.Helper()
	store, err := checkpoint.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

// remainingInts decodes the persisted remainder for name into ints. A nil
// result means no record exists.
func remainingInts(t *testing.T, store *checkpoint.Store, name string) []int {
	t.Helper()
	record, err := store.Load(name)
	require.NoError(t, err)
	if record == nil {
		return nil
	}
	values := make([]int, len(record.Remaining))
	for i, raw := range record.Remaining {
		require.NoError(t, json.Unmarshal(raw, &values[i]))
	}
	return values
}

func TestFreshRunProcessesAll(t *testing.T) {
	store := newStore(t)
	source := []int{1, 2, 3, 4}

	var processed []int
	err := ForEach(store, "good-run", source, func(e int) error {
		processed = append(processed, e)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, source, processed)
	assert.False(t, store.Exists("good-run"), "completed run must leave no record")
}

func TestFailThenResume(t *testing.T) {
	store := newStore(t)
	source := []int{1, 2, 3, 4, 5, 6, 7, 8}
	boom := fmt.Errorf("processing blew up")

	var processed []int
	err := ForEach(store, "t1", source, func(e int) error {
		if e == 4 {
			return boom
		}
		processed = append(processed, e)
		return nil
	})
	require.ErrorIs(t, err, boom, "caller's error must propagate unchanged")
	assert.Equal(t, []int{1, 2, 3}, processed)

	// The failed element is still listed as remaining
	assert.Equal(t, []int{4, 5, 6, 7, 8}, remainingInts(t, store, "t1"))

	// Second acquisition resumes at the failed element
	var resumed []int
	err = ForEach(store, "t1", source, func(e int) error {
		resumed = append(resumed, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 7, 8}, resumed)

	record, err := store.Load("t1")
	require.NoError(t, err)
	assert.Nil(t, record, "completed run must clear its record")
}

func TestInitialSnapshotPersistedBeforeFirstYield(t *testing.T) {
	store := newStore(t)
	source := []int{10, 20, 30}

	run, err := Begin(store, "snapshot", source)
	require.NoError(t, err)
	defer run.Close()

	// Aborting before any step leaves the full input persisted
	assert.Equal(t, source, remainingInts(t, store, "snapshot"))
}

func TestRecordIncludesElementBeingProcessed(t *testing.T) {
	store := newStore(t)
	source := []int{1, 2, 3, 4, 5}

	run, err := Begin(store, "stepwise", source)
	require.NoError(t, err)
	defer run.Close()

	for i := 0; run.Next(); i++ {
		assert.Equal(t, source[i], run.Element())
		// While element i is in the caller's hands, the record still
		// starts with it: a crash here must not mark it done.
		assert.Equal(t, source[i:], remainingInts(t, store, "stepwise"),
			"record mismatch while processing element %d", i)
		assert.Equal(t, len(source)-i-1, run.Remaining())
	}
	require.NoError(t, run.Err())

	record, err := store.Load("stepwise")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestSuccessiveAborts(t *testing.T) {
	store := newStore(t)
	source := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	var processed []int
	for i := range source {
		run, err := Begin(store, "grind", source)
		require.NoError(t, err)

		// Process one element, pull once more to commit it, then abort
		require.True(t, run.Next())
		processed = append(processed, run.Element())
		run.Next()
		require.NoError(t, run.Err())
		require.NoError(t, run.Close())

		assert.Equal(t, source[:i+1], processed)
	}

	// The last cycle's second Next exhausted the run and cleared state
	assert.False(t, store.Exists("grind"))
}

func TestResumedRunIgnoresSource(t *testing.T) {
	store := newStore(t)

	err := ForEach(store, "stale", []int{1, 2, 3}, func(e int) error {
		if e == 2 {
			return fmt.Errorf("stop at 2")
		}
		return nil
	})
	require.Error(t, err)

	// A different source on resume is silently ignored in favor of the
	// persisted remainder
	var resumed []int
	err = ForEach(store, "stale", []int{100, 200, 300}, func(e int) error {
		resumed = append(resumed, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, resumed)

	run, err := Begin(store, "stale", []int{100, 200})
	require.NoError(t, err)
	assert.False(t, run.Resumed())
	run.Close()
}

func TestNonSerializableElement(t *testing.T) {
	store := newStore(t)
	source := []chan int{make(chan int)}

	run, err := Begin(store, "unserializable", source)
	require.Error(t, err)
	assert.Nil(t, run)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSerialization),
		"expected serialization error, got %v", err)
	assert.False(t, store.Exists("unserializable"), "failed fresh start must not leave a record")

	// The failed acquisition must not leave the name registered
	run2, err := Begin(store, "unserializable", []int{1})
	require.NoError(t, err)
	run2.Close()
}

func TestCorruptRecordFailsLoudly(t *testing.T) {
	store := newStore(t)

	require.NoError(t, os.WriteFile(store.Path("mangled"), []byte("???"), 0644))

	_, err := Begin(store, "mangled", []int{1, 2})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCorruptState))
}

func TestTypeMismatchedRecordFailsLoudly(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Save("mismatched", []json.RawMessage{json.RawMessage(`"text"`)}))

	_, err := Begin[int](store, "mismatched", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCorruptState))
}

func TestDuplicateActiveName(t *testing.T) {
	store := newStore(t)

	run, err := Begin(store, "busy", []int{1, 2})
	require.NoError(t, err)

	_, err = Begin(store, "busy", []int{1, 2})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNameInUse))

	require.NoError(t, run.Close())

	run2, err := Begin(store, "busy", []int{1, 2})
	require.NoError(t, err)
	assert.True(t, run2.Resumed())
	run2.Close()
}

func TestInvalidName(t *testing.T) {
	store := newStore(t)

	_, err := Begin(store, "bad name", []int{1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidName))
}

func TestBeginSeqDrainsLazySource(t *testing.T) {
	store := newStore(t)

	var pulls int
	seq := iter.Seq[int](func(yield func(int) bool) {
		for i := 1; i <= 6; i++ {
			pulls++
			if !yield(i) {
				return
			}
		}
	})

	run, err := BeginSeq(store, "lazy", seq)
	require.NoError(t, err)
	defer run.Close()

	// The sequence was fully realized before any element was yielded
	assert.Equal(t, 6, pulls)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, remainingInts(t, store, "lazy"))
}

func TestForEachSeqResumesAfterFailure(t *testing.T) {
	store := newStore(t)

	numbers := func(yield func(int) bool) {
		for i := 0; i < 10; i++ {
			if !yield(i) {
				return
			}
		}
	}

	err := ForEachSeq(store, "lazy-fail", numbers, func(e int) error {
		if e == 5 {
			return fmt.Errorf("fault at 5")
		}
		return nil
	})
	require.Error(t, err)

	var resumed []int
	err = ForEachSeq(store, "lazy-fail", numbers, func(e int) error {
		resumed = append(resumed, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 7, 8, 9}, resumed)
}

func TestPanicLeavesRecordIntact(t *testing.T) {
	store := newStore(t)
	source := []int{1, 2, 3}

	func() {
		defer func() {
			require.NotNil(t, recover(), "expected processing panic")
		}()
		ForEach(store, "panicky", source, func(e int) error {
			if e == 2 {
				panic("processing exploded")
			}
			return nil
		})
	}()

	assert.Equal(t, []int{2, 3}, remainingInts(t, store, "panicky"))

	// ForEach's deferred Close released the name, so the run can resume
	var resumed []int
	err := ForEach(store, "panicky", source, func(e int) error {
		resumed = append(resumed, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, resumed)
}

func TestStructElementsRoundTrip(t *testing.T) {
	type job struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	store := newStore(t)
	source := []job{{1, "alpha"}, {2, "beta"}, {3, "gamma"}}

	var processed []job
	err := ForEach(store, "jobs", source, func(j job) error {
		if j.ID == 2 {
			return fmt.Errorf("fail on %s", j.Name)
		}
		processed = append(processed, j)
		return nil
	})
	require.Error(t, err)

	err = ForEach(store, "jobs", source, func(j job) error {
		processed = append(processed, j)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, source, processed)
}
