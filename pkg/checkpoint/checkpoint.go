package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"pickmeup/pkg/errors"
	"pickmeup/pkg/logger"
)

const (
	fileSuffix    = ".checkpoint.json"
	recordVersion = 1
)

// allowedNameChars are the only characters accepted in a run name, so that
// the name maps directly onto a filename on every platform.
const allowedNameChars = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789_.-"

// Record is the persisted state of one run: the ordered elements that have
// not yet been confirmed processed.
type Record struct {
	Name      string            `json:"name"`
	Remaining []json.RawMessage `json:"remaining"`
	UpdatedAt time.Time         `json:"updated_at"`
	Version   int               `json:"version"`
}

// Store persists one Record per run name as a JSON file in a state
// directory. Absence of a file means the run either never started or
// completed and was cleared.
type Store struct {
	dir    string
	logger logger.Logger
}

// NewStore creates a Store rooted at dir. An empty dir selects the
// platform data directory (see DefaultDir). The directory is created if
// it does not exist.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeStorage, "failed to resolve state directory")
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "failed to create state directory")
	}

	return &Store{
		dir:    dir,
		logger: logger.GetLogger(),
	}, nil
}

// ValidateName checks that name is non-empty and contains only letters,
// digits, '_', '.' and '-'.
func ValidateName(name string) error {
	if name == "" {
		return errors.New(errors.ErrorTypeInvalidName, "run name must not be empty")
	}
	for _, c := range name {
		if !strings.ContainsRune(allowedNameChars, c) {
			return errors.Newf(errors.ErrorTypeInvalidName,
				"run name %q can only contain letters, digits, and '-', '_', '.'", name)
		}
	}
	return nil
}

// Path returns the file path backing the record for name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+fileSuffix)
}

// Load returns the record for name, or nil if none exists. Absence is a
// normal outcome, not an error. A file that exists but cannot be decoded
// surfaces as a corrupt-state error; it is never silently discarded, since
// that would reprocess already-done work without warning.
func (s *Store) Load(name string) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No record exists
		}
		return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to read record for %q", name)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeCorruptState, "failed to decode record for %q", name)
	}

	s.logger.WithFields(map[string]interface{}{
		"name":      name,
		"remaining": len(record.Remaining),
	}).Debug("Checkpoint record loaded")

	return &record, nil
}

// Save atomically replaces the record for name with the given remaining
// elements. The write goes to a temporary file which is fsynced and then
// renamed over the record, so a crash mid-write never corrupts the
// previous state.
func (s *Store) Save(name string, remaining []json.RawMessage) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	record := Record{
		Name:      name,
		Remaining: remaining,
		UpdatedAt: time.Now(),
		Version:   recordVersion,
	}

	data, err := json.Marshal(&record)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeSerialization, "failed to encode record for %q", name)
	}

	path := s.Path(name)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to create temporary record file")
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to write record file")
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to sync record file")
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to close record file")
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to replace record file")
	}

	s.logger.WithFields(map[string]interface{}{
		"name":      name,
		"remaining": len(remaining),
	}).Debug("Checkpoint record saved")

	return nil
}

// Clear removes the record for name. Clearing a name with no record is a
// no-op.
func (s *Store) Clear(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to clear record for %q", name)
	}

	s.logger.WithField("name", name).Debug("Checkpoint record cleared")
	return nil
}

// Exists reports whether a record for name is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// List returns the names of all runs with a pending record, sorted by the
// directory's entry order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "failed to read state directory")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileSuffix))
	}
	return names, nil
}

// DefaultDir returns the platform data directory for checkpoint records.
func DefaultDir() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		// Use XDG_DATA_HOME if set, otherwise ~/.local/share
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "pickmeup")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "pickmeup")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "pickmeup")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "pickmeup")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".pickmeup")
	}

	return filepath.Join(dataDir, "checkpoints"), nil
}
