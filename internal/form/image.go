package form

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ecoleta/client/internal/domain"
)

var ErrNotImage = errors.New("file is not an image")

// Attachment is an opened image file. It holds the file until Close.
type Attachment struct {
	mu          sync.Mutex
	file        *os.File
	name        string
	contentType string
}

// OpenAttachment opens path and checks that it sniffs as image/*
func OpenAttachment(path string) (*Attachment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		file.Close()
		return nil, fmt.Errorf("%w: %s is %s", ErrNotImage, filepath.Base(path), contentType)
	}

	return &Attachment{
		file:        file,
		name:        filepath.Base(path),
		contentType: contentType,
	}, nil
}

func (a *Attachment) Name() string {
	return a.name
}

func (a *Attachment) ContentType() string {
	return a.contentType
}

// Image reads the whole file into a domain.Image
func (a *Attachment) Image() (*domain.Image, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil, fmt.Errorf("failed to read image %s: %w", a.name, os.ErrClosed)
	}
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind image %s: %w", a.name, err)
	}
	data, err := io.ReadAll(a.file)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", a.name, err)
	}

	return &domain.Image{
		FileName:    a.name,
		ContentType: a.contentType,
		Data:        data,
	}, nil
}

// Close releases the file. Safe to call more than once.
func (a *Attachment) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}
