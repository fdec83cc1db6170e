package manifest

import (
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFilename is the manifest's name inside the session folder.
const ManifestFilename = "manifest.json"

// FolderSink persists the manifest as JSON inside a session folder,
// writing through a temp file and rename so a crash mid-write never
// leaves a truncated manifest.
type FolderSink struct {
	dir string
}

// NewFolderSink creates the session folder (and parents) and returns a
// sink writing into it.
func NewFolderSink(dir string) (*FolderSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session folder: %w", err)
	}
	return &FolderSink{dir: dir}, nil
}

// Dir returns the session folder path.
func (s *FolderSink) Dir() string { return s.dir }

// WriteManifest implements Sink.
func (s *FolderSink) WriteManifest(m *Manifest) error {
	data, err := m.MarshalIndent()
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp := filepath.Join(s.dir, ManifestFilename+".tmp")
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, ManifestFilename)); err != nil {
		return fmt.Errorf("commit manifest: %w", err)
	}
	return nil
}
