package auth

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileRepository reads provisioned credentials from a JSON file maintained
// outside this process.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	// Touch file if not exists
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) LoadAll() ([]Credential, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	var creds []Credential
	dec := json.NewDecoder(f)
	if err := dec.Decode(&creds); err != nil {
		if err == io.EOF {
			return []Credential{}, nil
		}
		// empty or malformed -> start fresh
		return []Credential{}, nil
	}
	return creds, nil
}
