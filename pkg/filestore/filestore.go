package filestore

import (
	"image"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	// Registered so image.DecodeConfig can verify uploads in these formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImageType is returned by Save when the uploaded payload does
// not sniff and decode as a supported image format.
var ErrUnsupportedImageType = errors.New("uploaded file is not a supported image")

// Store persists uploaded binaries under a content root. Stored references
// are generated filenames, unique per upload, relative to a folder under the
// root.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the content root the store writes under.
func (s *Store) Root() string {
	return s.root
}

// Path returns the absolute path of a stored reference.
func (s *Store) Path(folder, name string) string {
	return filepath.Join(s.root, folder, filepath.Base(name))
}

// Save sniffs the upload's content type, verifies it decodes as an image,
// and writes it under root/folder with a collision-resistant generated name.
// The returned name is the stored reference used as the image URL. Nothing
// is written when the payload is rejected.
func (s *Store) Save(folder string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrUnsupportedImageType
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", errors.WithStack(err)
	}
	if _, _, err := image.DecodeConfig(f); err != nil {
		return "", ErrUnsupportedImageType
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", errors.WithStack(err)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.WithStack(err)
	}
	name := id.String() + mtype.Extension()

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.WithStack(err)
	}

	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", errors.WithStack(err)
	}

	if _, err := io.Copy(dst, f); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", errors.WithStack(err)
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", errors.WithStack(err)
	}
	if err := dst.Close(); err != nil {
		return "", errors.WithStack(err)
	}

	return name, nil
}

// Delete removes a stored reference. A reference that is already absent is
// not an error, since deletion is best-effort cleanup.
func (s *Store) Delete(folder, name string) error {
	err := os.Remove(s.Path(folder, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}
