// Package persist reads and writes resources below a root directory.
package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeusync/ownership/pkg/encoding"
	"gopkg.in/yaml.v3"
)

// Folder is a directory that resources are addressed relative to. Names use
// forward slashes on every platform.
type Folder struct {
	root string
}

func NewFolder(root string) *Folder {
	return &Folder{root: filepath.Clean(root)}
}

func (f *Folder) Root() string { return f.root }

// Sub returns the folder at path below f. The directory is not created.
func (f *Folder) Sub(path string) *Folder {
	return &Folder{root: f.PathOf(path)}
}

func (f *Folder) PathOf(name string) string {
	return filepath.Join(f.root, filepath.FromSlash(name))
}

func (f *Folder) Exists(name string) bool {
	_, err := os.Stat(f.PathOf(name))
	return err == nil
}

// OpenInput opens name for reading and hands it to read. A missing file
// yields an error matching os.ErrNotExist.
func (f *Folder) OpenInput(name string, read func(io.Reader) error) error {
	file, err := os.Open(f.PathOf(name))
	if err != nil {
		return fmt.Errorf("open input %q: %w", name, err)
	}
	defer file.Close()

	if err = read(file); err != nil {
		return fmt.Errorf("read %q: %w", name, err)
	}
	return nil
}

// OpenOutput hands write a temporary file next to name and moves it into
// place once write succeeds, creating parent directories as needed. On
// failure the previous content of name is kept.
func (f *Folder) OpenOutput(name string, write func(io.Writer) error) error {
	path := f.PathOf(name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("open output %q: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err = write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %q: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %q: %w", name, err)
	}
	return nil
}

func (f *Folder) ReadJSON(name string, v any) error {
	return f.OpenInput(name, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(v)
	})
}

func (f *Folder) WriteJSON(name string, v any) error {
	return f.OpenOutput(name, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func (f *Folder) ReadYAML(name string, v any) error {
	return f.OpenInput(name, func(r io.Reader) error {
		return yaml.NewDecoder(r).Decode(v)
	})
}

func (f *Folder) WriteYAML(name string, v any) error {
	return f.OpenOutput(name, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	})
}

// Inject reads name and feeds its content to s.
func (f *Folder) Inject(name string, s encoding.Serializable) error {
	return f.OpenInput(name, func(r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		return encoding.Inject(s, data)
	})
}

// Extract serializes s into name.
func (f *Folder) Extract(name string, s encoding.Serializable) error {
	data, err := encoding.Extract(s)
	if err != nil {
		return fmt.Errorf("extract %q: %w", name, err)
	}
	return f.OpenOutput(name, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
