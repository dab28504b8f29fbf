package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// FileSlot stores each key in its own <key>.json file. Writes go through a
// temp file and a rename, and writers in different processes are serialised
// by an advisory lock next to the value file.
type FileSlot struct {
	dir string
}

// NewFileSlot creates a FileSlot writing under dir. The directory is created
// on first write.
func NewFileSlot(dir string) *FileSlot {
	return &FileSlot{dir: dir}
}

// Dir returns the directory holding the slot files.
func (f *FileSlot) Dir() string {
	return f.dir
}

// Path returns the file that holds key.
func (f *FileSlot) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("slot key must not be empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("slot key %q must not contain path separators", key)
	}
	return nil
}

func (f *FileSlot) Load(key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(f.Path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading slot %s: %w", key, err)
	}
	return string(data), true, nil
}

func (f *FileSlot) Store(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating slot directory: %w", err)
	}

	unlock, err := f.lock(key)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	tmp, err := os.CreateTemp(f.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for slot %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing slot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file for slot %s: %w", key, err)
	}
	if err := os.Rename(tmpName, f.Path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing slot %s: %w", key, err)
	}
	return nil
}

func (f *FileSlot) Delete(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if _, err := os.Stat(f.dir); os.IsNotExist(err) {
		return nil
	}

	unlock, err := f.lock(key)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	if err := os.Remove(f.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing slot %s: %w", key, err)
	}
	return nil
}

// lock takes an exclusive flock on the key's lock file.
func (f *FileSlot) lock(key string) (func() error, error) {
	lf, err := os.OpenFile(filepath.Join(f.dir, "."+key+".lock"), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock for slot %s: %w", key, err)
	}
	if err := unix.Flock(int(lf.Fd()), unix.LOCK_EX); err != nil {
		_ = lf.Close()
		return nil, fmt.Errorf("locking slot %s: %w", key, err)
	}
	return func() error {
		defer lf.Close()
		return unix.Flock(int(lf.Fd()), unix.LOCK_UN)
	}, nil
}
