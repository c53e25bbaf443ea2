// Package hasher computes content digests of files.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"filescanner/pkg/domain"
	"filescanner/pkg/serrors"
	"io"
	"os"
)

// DefaultBufferSize is the chunk size used to stream file contents.
const DefaultBufferSize = 64 * 1024

// SHA256 streams files through SHA-256 in fixed-size chunks, so memory use does
// not depend on the file size. It is safe for concurrent use.
type SHA256 struct {
	bufferSize int
}

// New creates a SHA256 hasher. A non-positive bufferSize selects DefaultBufferSize.
func New(bufferSize int) *SHA256 {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	return &SHA256{bufferSize: bufferSize}
}

// Hash returns the lowercase hex digest of the file at path. Open and read
// failures are reported as serrors.ErrIO.
func (h *SHA256) Hash(path string) (domain.FileDigest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrIO, err, "could not open %s", path)
	}
	defer func() {
		_ = f.Close()
	}()

	return h.HashReader(f)
}

// HashReader digests everything readable from r.
func (h *SHA256) HashReader(r io.Reader) (domain.FileDigest, error) {
	sum := sha256.New()
	if _, err := io.CopyBuffer(sum, r, make([]byte, h.bufferSize)); err != nil {
		return "", serrors.Wrap(serrors.ErrIO, err, "could not read file contents")
	}

	return domain.FileDigest(hex.EncodeToString(sum.Sum(nil))), nil
}
