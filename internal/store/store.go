// Package store persists the dataset artifact and loads it back with its
// integrity checks.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"deathmap/internal/models"
	"deathmap/internal/validator"
	"deathmap/pkg/metadata"
)

// Artifact errors.
var (
	ErrOutputExists     = errors.New("output already exists (use -force to overwrite)")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactCorrupt  = errors.New("artifact is not a valid dataset document")
)

// WriteOptions controls artifact encoding and overwrite behavior.
type WriteOptions struct {
	Pretty bool
	Force  bool
}

// Sign sets ds.Metadata.Checksum to the hash of ds.Data.
func Sign(ds *models.Dataset) error {
	sum, err := metadata.CalculateHash(ds.Data)
	if err != nil {
		return err
	}

	ds.Metadata.Checksum = sum

	return nil
}

// Encode signs ds and returns its JSON document.
func Encode(ds *models.Dataset, pretty bool) ([]byte, error) {
	if err := Sign(ds); err != nil {
		return nil, err
	}

	var (
		content []byte
		err     error
	)

	if pretty {
		content, err = json.MarshalIndent(ds, "", "  ")
	} else {
		content, err = json.Marshal(ds)
	}

	if err != nil {
		return nil, fmt.Errorf("encoding dataset: %w", err)
	}

	return append(content, '\n'), nil
}

// Write signs ds and writes it to path. The file appears complete or not at
// all: content goes to a temp file in the same directory which is then
// renamed over path. Without opts.Force an existing path is an error.
func Write(path string, ds *models.Dataset, opts WriteOptions) error {
	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
	}

	content, err := Encode(ds, opts.Pretty)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpName := tmp.Name()
	committed := false

	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}

	committed = true

	return nil
}

// Load reads the artifact at path. It distinguishes a missing file, an
// undecodable document, a checksum mismatch and an invariant violation; a
// valid artifact with zero records loads without error. Artifacts without a
// checksum are accepted unverified.
func Load(path string) (*models.Dataset, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
	}

	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	return Decode(content)
}

// Decode parses and checks an artifact document.
func Decode(content []byte) (*models.Dataset, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrArtifactCorrupt)
	}

	var ds models.Dataset
	if err := json.Unmarshal(trimmed, &ds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactCorrupt, err)
	}

	if ds.Data == nil {
		return nil, fmt.Errorf("%w: missing data array", ErrArtifactCorrupt)
	}

	if ds.ByType == nil {
		ds.ByType = map[models.DeathType]int{}
	}

	if ds.Metadata.Checksum != "" {
		if err := metadata.Verify(ds.Data, ds.Metadata.Checksum); err != nil {
			return nil, err
		}
	}

	if err := validator.NewDatasetValidator().Validate(&ds); err != nil {
		return nil, err
	}

	return &ds, nil
}
