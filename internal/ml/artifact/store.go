package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/strokeguard/strokeguard/internal/ml/pipeline"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

// Save publishes the artifact at path atomically: readers see either the previous file
// or the complete new one. It returns the artifact ID.
func Save(path string, p *pipeline.Pipeline, meta Metadata) (string, error) {
	data, id, err := Marshal(p, meta)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return id, nil
}

// Load reads and validates the artifact at path.
func Load(path string, expected schema.Schema) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	a, err := Unmarshal(data, expected)
	if err != nil {
		return nil, fmt.Errorf("loading artifact %s: %w", path, err)
	}
	return a, nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	d, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer d.Close()
	// Some filesystems refuse to sync directories; the rename has already happened.
	_ = d.Sync()
	return nil
}
