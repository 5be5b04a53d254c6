package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/noah-isme/backend-propostas/internal/proposal"
)

// Store writes rendered proposals to a directory on disk.
type Store struct {
	Path     string
	Renderer *Renderer
}

// FileName is the on-disk name of a proposal document.
func FileName(proposalID string) string {
	return fmt.Sprintf("proposal_%s.pdf", proposalID)
}

// Save renders snap and writes it to Path, replacing any previous version atomically.
// It returns the path of the written file.
func (s *Store) Save(snap proposal.Snapshot) (string, error) {
	if strings.TrimSpace(snap.ID) == "" {
		return "", fmt.Errorf("pdf: snapshot id is required")
	}
	if err := os.MkdirAll(s.Path, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	renderer := s.Renderer
	if renderer == nil {
		renderer = &Renderer{}
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, snap); err != nil {
		return "", err
	}

	target := filepath.Join(s.Path, FileName(filepath.Base(snap.ID)))
	tmp, err := os.CreateTemp(s.Path, ".proposal-*.pdf")
	if err != nil {
		return "", fmt.Errorf("pdf: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("pdf: close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("pdf: move file: %w", err)
	}
	return target, nil
}
