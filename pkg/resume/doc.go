// Package resume provides resumable iteration over a finite ordered
// collection. If processing crashes partway through, the next run with the
// same name picks up at the first unprocessed element instead of starting
// over.
//
// Progress is tracked against a named checkpoint record (package
// checkpoint). Before each element is handed to the caller, the record is
// updated to the elements not yet fully processed, including the one about
// to be handed out. Only when iteration finishes without failure is the
// record cleared.
//
//	store, _ := checkpoint.NewStore("")
//	err := resume.ForEach(store, "backfill-2024", ids, func(id string) error {
//		return migrate(id)
//	})
//
// A resumed run iterates the persisted remainder and ignores the source
// argument entirely. Changing the source between runs without clearing the
// record is undefined behavior, not a detected error.
//
// Elements must round-trip through JSON. Concurrent runs over the same
// name from multiple processes are unsupported; within one process they
// are rejected at Begin.
package resume
