// Package attachment stores transaction images on the local filesystem,
// one file per transaction named image-{ownerID}-{transactionID}.
package attachment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"dompet/pkg/apperr"

	"github.com/disintegration/imaging"
)

// MaxPreviewWidth bounds thumbnail widths.
const MaxPreviewWidth = 1024

var refRE = regexp.MustCompile(`^image-\d+-\d+$`)

// Store keeps attachment blobs in a single directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the base directory.
func (s *Store) Dir() string { return s.dir }

// Reference returns the deterministic blob name for a transaction.
func Reference(ownerID, transactionID uint) string {
	return fmt.Sprintf("image-%d-%d", ownerID, transactionID)
}

// IsReference reports whether name follows the blob naming pattern.
func IsReference(name string) bool { return refRE.MatchString(name) }

// DecodePayload turns base64 text (optionally a data: URL) into raw bytes.
func DecodePayload(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "data:") {
		if i := strings.Index(text, ","); i >= 0 {
			text = text[i+1:]
		}
	}
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("attachment is not valid base64: %w", apperr.ErrValidation)
	}
	return b, nil
}

// EncodePayload is the wire form of attachment bytes.
func EncodePayload(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func (s *Store) path(ref string) (string, bool) {
	if !IsReference(ref) {
		return "", false
	}
	return filepath.Join(s.dir, ref), true
}

// Save writes payload for the transaction and returns its reference. An
// existing blob for the same transaction is replaced atomically.
func (s *Store) Save(ownerID, transactionID uint, payload []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir %s: %v: %w", s.dir, err, apperr.ErrStorage)
	}
	ref := Reference(ownerID, transactionID)
	full := filepath.Join(s.dir, ref)
	tmp, err := os.CreateTemp(s.dir, "."+ref+".*")
	if err != nil {
		return "", fmt.Errorf("write %s: %v: %w", ref, err, apperr.ErrStorage)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %v: %w", ref, err, apperr.ErrStorage)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %v: %w", ref, err, apperr.ErrStorage)
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %v: %w", ref, err, apperr.ErrStorage)
	}
	return ref, nil
}

// Load returns the blob for ref, or nil when it is missing or unreadable.
func (s *Store) Load(ref string) []byte {
	full, ok := s.path(ref)
	if !ok {
		return nil
	}
	b, err := os.ReadFile(full)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("attachment: read %s: %v", ref, err)
		}
		return nil
	}
	return b
}

// Delete removes the blob. Missing blobs are not an error.
func (s *Store) Delete(ref string) error {
	full, ok := s.path(ref)
	if !ok {
		return nil
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	return nil
}

// List returns the references currently on disk.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var refs []string
	for _, e := range entries {
		if e.IsDir() || !IsReference(e.Name()) {
			continue
		}
		refs = append(refs, e.Name())
	}
	return refs, nil
}

// ModTime reports when the blob for ref was last written.
func (s *Store) ModTime(ref string) (time.Time, bool) {
	full, ok := s.path(ref)
	if !ok {
		return time.Time{}, false
	}
	fi, err := os.Stat(full)
	if err != nil {
		return time.Time{}, false
	}
	return fi.ModTime(), true
}

// Preview renders the blob as a JPEG thumbnail width pixels wide. It returns
// (nil, nil) when the blob is missing and a validation error when the blob is
// not a decodable image.
func (s *Store) Preview(ref string, width int) ([]byte, error) {
	if width <= 0 || width > MaxPreviewWidth {
		return nil, fmt.Errorf("preview width must be 1..%d: %w", MaxPreviewWidth, apperr.ErrValidation)
	}
	raw := s.Load(ref)
	if raw == nil {
		return nil, nil
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("attachment is not an image: %w", apperr.ErrValidation)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
