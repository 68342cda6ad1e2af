package oci

import (
	"context"
	"fmt"
	"os"
)

// FileProvider reads an image config document from the local filesystem.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) Info() string {
	return "file://" + p.path
}

func (p *FileProvider) GetImage(ctx context.Context) (*Image, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return newImage(raw)
}
