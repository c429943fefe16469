package feeds

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

func Decode(reader io.Reader) ([]*Entry, error) {
	var entries []*Entry
	if err := json.NewDecoder(reader).Decode(&entries); err != nil {
		return nil, fmt.Errorf("invalid feed list: %w", err)
	}

	// null elements are decoded as nil pointers without calling UnmarshalJSON
	if index := slices.Index(entries, nil); index != -1 {
		return nil, fmt.Errorf("invalid feed list: entry #%d is null", index+1)
	}

	return entries, nil
}

func Encode(writer io.Writer, entries []*Entry) error {
	if entries == nil {
		entries = []*Entry{}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

// Load reads the feed list. Errors for a missing file match fs.ErrNotExist.
func Load(path string) (_ []*Entry, retErr error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	entries, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return entries, nil
}

// Save replaces the file with the specified feed list. The new contents is written to a temporary file first, so
// the file is never observed partially written.
func Save(path string, entries []*Entry) (retErr error) {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}

	tempPath := file.Name()
	defer func() {
		if retErr != nil {
			_ = os.Remove(tempPath)
		}
	}()

	if err := Encode(file, entries); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	// CreateTemp creates files with 0600 permissions
	if err := os.Chmod(tempPath, 0o644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}
