package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyFile      = errors.New("file is empty")
	ErrFileTooLarge   = errors.New("file exceeds upload limit")
	ErrTypeNotAllowed = errors.New("file type not allowed")
)

const sniffLen = 3072

// UploadPolicy limits what may be stored as an attachment.
type UploadPolicy struct {
	MaxBytes     int64
	AllowedTypes []string
}

// Inspected is an upload whose content type has been sniffed. Reader yields
// the full content, including the bytes consumed for detection.
type Inspected struct {
	MimeType string
	Reader   io.Reader
}

// Inspect checks the declared size and sniffs the content type of r.
func (p UploadPolicy) Inspect(size int64, r io.Reader) (*Inspected, error) {
	if size == 0 {
		return nil, ErrEmptyFile
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, size, p.MaxBytes)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	if n == 0 {
		return nil, ErrEmptyFile
	}

	detected := mimetype.Detect(head)
	if !p.allowed(detected) {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotAllowed, detected.String())
	}

	var reader io.Reader = io.MultiReader(bytes.NewReader(head), r)
	if p.MaxBytes > 0 {
		reader = io.LimitReader(reader, p.MaxBytes)
	}
	return &Inspected{MimeType: detected.String(), Reader: reader}, nil
}

// allowed walks the detected type and its parents, so application/zip
// also admits xlsx.
func (p UploadPolicy) allowed(detected *mimetype.MIME) bool {
	if len(p.AllowedTypes) == 0 {
		return true
	}
	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range p.AllowedTypes {
			if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}
