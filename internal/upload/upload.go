// Package upload stores user files (posting images, resumes) on local disk.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"eden/internal/apperr"
)

// Policy lists the MIME types accepted for one kind of upload.
type Policy struct {
	Name    string
	Allowed []string
}

var (
	Images = Policy{Name: "image", Allowed: []string{"image/jpeg", "image/png", "image/webp", "image/gif"}}
	Resume = Policy{Name: "PDF resume", Allowed: []string{"application/pdf"}}
)

// PublicPrefix is the URL path the files are served under.
const PublicPrefix = "/uploads/"

const sniffLen = 3072

// Store writes uploads into one directory under random names.
type Store struct {
	dir      string
	maxBytes int64
}

func NewStore(dir string, maxBytes int64) *Store {
	return &Store{dir: dir, maxBytes: maxBytes}
}

func (s *Store) Dir() string { return s.dir }

// SaveFile stores a multipart upload. See Save.
func (s *Store) SaveFile(fh *multipart.FileHeader, p Policy) (string, error) {
	if fh.Size > s.maxBytes {
		return "", apperr.Validation("upload.Save", "file is larger than %d bytes", s.maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return "", apperr.Dependency("upload.Save", "cannot read upload", err)
	}
	defer f.Close()
	return s.Save(f, p)
}

// Save sniffs the content type of r, rejects anything p does not allow, and writes the
// file. It returns the public path, e.g. "/uploads/0b6c….png".
func (s *Store) Save(r io.Reader, p Policy) (string, error) {
	const op = "upload.Save"
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", apperr.Dependency(op, "cannot read upload", err)
	}
	head = head[:n]
	if n == 0 {
		return "", apperr.Validation(op, "empty file")
	}
	if int64(n) > s.maxBytes {
		return "", apperr.Validation(op, "file is larger than %d bytes", s.maxBytes)
	}

	mt := mimetype.Detect(head)
	if !allowed(mt, p) {
		return "", apperr.UnsupportedMedia(op, "only %s files are allowed, got %s", p.Name, mt.String())
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", apperr.Dependency(op, "cannot create upload folder", err)
	}
	name := uuid.NewString() + mt.Extension()
	dst := filepath.Join(s.dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", apperr.Dependency(op, "cannot store upload", err)
	}

	written, err := io.Copy(out, io.MultiReader(bytes.NewReader(head), io.LimitReader(r, s.maxBytes-int64(n)+1)))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return "", apperr.Dependency(op, "cannot store upload", err)
	}
	if written > s.maxBytes {
		os.Remove(dst)
		return "", apperr.Validation(op, "file is larger than %d bytes", s.maxBytes)
	}
	return PublicPrefix + name, nil
}

// Remove deletes a previously saved file by its public path. Missing files are ignored.
func (s *Store) Remove(publicPath string) error {
	name := path.Base(publicPath)
	if !strings.HasPrefix(publicPath, PublicPrefix) || name == "." || name == "/" {
		return fmt.Errorf("not an upload path: %q", publicPath)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func allowed(mt *mimetype.MIME, p Policy) bool {
	for _, a := range p.Allowed {
		if mt.Is(a) {
			return true
		}
	}
	return false
}
