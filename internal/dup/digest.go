package dup

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	sha256 "github.com/minio/sha256-simd"
)

// ChunkSize is the number of bytes read at once while fingerprinting a file.
const ChunkSize = 4096

// Digest is the SHA-256 of a file's content.
type Digest [sha256.Size]byte

// String returns the digest in lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 8 hex characters of the digest.
func (d Digest) Short() string {
	return d.String()[:8]
}

// IOError is returned when a file could not be fingerprinted.
type IOError struct {
	Path string
	Op   string
	Err  error
}

// Error names the failed operation and the file.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s `%s`: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Fingerprint computes the digest of the file at path.
func Fingerprint(path string) (digest Digest, err error) {
	var file *os.File
	if file, err = os.Open(path); err != nil {
		return digest, &IOError{Path: path, Op: "opening", Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &IOError{Path: path, Op: "closing", Err: cerr}
		}
	}()

	if digest, err = FingerprintReader(file, ChunkSize); err != nil {
		err = &IOError{Path: path, Op: "reading", Err: err}
	}
	return
}

// FingerprintReader hashes r until EOF, reading chunkSize bytes at a time.
// The digest does not depend on chunkSize.
func FingerprintReader(r io.Reader, chunkSize int) (Digest, error) {
	var digest Digest
	if chunkSize < 1 {
		return digest, fmt.Errorf("invalid chunk size %d", chunkSize)
	}

	hash := sha256.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return digest, err
		}
	}

	copy(digest[:], hash.Sum(nil))
	return digest, nil
}
