// Package checkpoint provides durable storage for resumable run state.
//
// Each run name maps to one JSON record holding the ordered elements that
// have not yet been confirmed processed. Records are written atomically
// (temporary file, fsync, rename) so an interrupted write never corrupts
// the previous state.
//
// Records live in a state directory, by default the platform data
// directory:
//   - Linux: ~/.local/share/pickmeup/checkpoints/
//   - macOS: ~/Library/Application Support/pickmeup/checkpoints/
//   - Windows: %APPDATA%/pickmeup/checkpoints/
//
// The presence of a record signals an in-progress run; absence means the
// run either never started or completed and was cleared.
package checkpoint
