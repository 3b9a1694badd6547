// Package snapshot persists whole scenes as canonical CBOR.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"github.com/zurustar/ttcore/pkg/scene"
)

// Version is the envelope version written by Save.
const Version = 1

// ErrVersion is returned for snapshots written by an unknown version.
var ErrVersion = errors.New("snapshot: unsupported version")

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

type envelope struct {
	Version uint16       `cbor:"1,keyasint"`
	Scene   *scene.Scene `cbor:"2,keyasint"`
}

// Marshal encodes s. Equal scenes always produce equal bytes.
func Marshal(s *scene.Scene) ([]byte, error) {
	return encMode.Marshal(envelope{Version: Version, Scene: s})
}

// Unmarshal decodes a snapshot and repairs the scene with Validate, so the
// result always satisfies the scene invariants. A scene is never restored
// mid init script.
func Unmarshal(data []byte) (*scene.Scene, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, env.Version)
	}
	if env.Scene == nil {
		return nil, fmt.Errorf("snapshot: unmarshal: missing scene")
	}
	env.Scene.Initializing = false
	env.Scene.Validate()
	return env.Scene, nil
}

// Save writes s to w.
func Save(w io.Writer, s *scene.Scene) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Load reads a snapshot from r.
func Load(r io.Reader) (*scene.Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	return Unmarshal(data)
}

// SaveFile writes s to path through a temporary file in the same
// directory, so a crash never leaves a half written snapshot behind.
func SaveFile(path string, s *scene.Scene) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFile reads a snapshot file.
func LoadFile(path string) (*scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
