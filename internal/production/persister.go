// Package production provides production integrations: persistence, status
// publishing, visualization and the MAVLink link.
// Implements core interfaces using stdlib where possible.

package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/comalice/commanderx/internal/core"
)

// writeAtomic replaces fn so a crash mid-write never leaves a torn snapshot.
func writeAtomic(fn string, data []byte) error {
	tmp := fn + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fn); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func readSnapshotFile(fn, vehicleID string) ([]byte, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("vehicle %q: %w", vehicleID, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", fn, err)
	}
	return data, nil
}

// JSONPersister is a stdlib-only file-based persister using JSON serialization.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snapshot core.StatusSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return writeAtomic(filepath.Join(p.dir, snapshot.VehicleID+".json"), data)
}

func (p *JSONPersister) Load(ctx context.Context, vehicleID string) (core.StatusSnapshot, error) {
	data, err := readSnapshotFile(filepath.Join(p.dir, vehicleID+".json"), vehicleID)
	if err != nil {
		return core.StatusSnapshot{}, err
	}

	var snapshot core.StatusSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return core.StatusSnapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	snapshot.VehicleID = vehicleID // Ensure ID

	return snapshot, nil
}

// YAMLPersister is a file-based persister using YAML serialization for StatusSnapshot.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snapshot core.StatusSnapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return writeAtomic(filepath.Join(p.dir, snapshot.VehicleID+".yaml"), data)
}

func (p *YAMLPersister) Load(ctx context.Context, vehicleID string) (core.StatusSnapshot, error) {
	data, err := readSnapshotFile(filepath.Join(p.dir, vehicleID+".yaml"), vehicleID)
	if err != nil {
		return core.StatusSnapshot{}, err
	}

	var snapshot core.StatusSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return core.StatusSnapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	snapshot.VehicleID = vehicleID // Ensure ID
	if !snapshot.Status.ArmingState.Valid() {
		return core.StatusSnapshot{}, fmt.Errorf("vehicle %q: invalid arming state in snapshot", vehicleID)
	}

	return snapshot, nil
}

// NewPersister picks a persister by format name ("json" or "yaml").
func NewPersister(format, dir string) (core.Persister, error) {
	switch format {
	case "", "json":
		return NewJSONPersister(dir)
	case "yaml", "yml":
		return NewYAMLPersister(dir)
	}
	return nil, fmt.Errorf("unknown persistence format %q", format)
}
