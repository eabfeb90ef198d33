package digest

import (
	"encoding/hex"
	"errors"
	"io"
	"os"

	"github.com/jamesainslie/checksum/pkg/checksum/logging"
)

// DefaultChunkSize is the read buffer size used when none is configured.
const DefaultChunkSize = 1 << 20

// MinChunkSize is the smallest chunk size accepted from configuration.
const MinChunkSize = 64 << 10

// FileDigest is the result of hashing one file.
type FileDigest struct {
	// Path is the path that was hashed, as given by the caller.
	Path string `json:"path" yaml:"path"`

	// Size is the number of bytes read from the file.
	Size uint64 `json:"size" yaml:"size"`

	// Algorithm is the digest algorithm used.
	Algorithm Algorithm `json:"algorithm" yaml:"algorithm"`

	// Hex is the lowercase hex digest.
	Hex string `json:"hash" yaml:"hash"`
}

// HumanSize returns Size formatted with FormatSize.
func (d FileDigest) HumanSize() string {
	return FormatSize(d.Size)
}

// Hasher streams files through a digest in fixed-size chunks.
// The zero value uses DefaultChunkSize.
type Hasher struct {
	ChunkSize int
}

// NewHasher returns a Hasher reading chunkSize bytes at a time.
// A non-positive chunkSize selects DefaultChunkSize.
func NewHasher(chunkSize int) *Hasher {
	return &Hasher{ChunkSize: chunkSize}
}

// Compute hashes the file at path with the default Hasher.
func Compute(path string, alg Algorithm) (FileDigest, error) {
	var h Hasher
	return h.Compute(path, alg)
}

// Compute hashes the regular file at path with alg.
// It returns a *FileAccessError if the file is missing, unreadable or
// not a regular file.
func (h *Hasher) Compute(path string, alg Algorithm) (FileDigest, error) {
	sum, err := alg.New()
	if err != nil {
		return FileDigest{}, err
	}

	// Stat before opening: opening a FIFO blocks until a writer appears.
	info, err := os.Stat(path)
	if err != nil {
		return FileDigest{}, newAccessError(path, err)
	}
	if err := checkRegular(path, info); err != nil {
		return FileDigest{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return FileDigest{}, newAccessError(path, err)
	}
	defer f.Close()

	opened, err := f.Stat()
	if err != nil {
		return FileDigest{}, newAccessError(path, err)
	}
	if err := checkRegular(path, opened); err != nil {
		return FileDigest{}, err
	}
	if !os.SameFile(info, opened) {
		return FileDigest{}, &FileAccessError{Path: path, Reason: ReasonReadError, Err: errFileReplaced}
	}

	buf := make([]byte, h.chunkSize())
	var total uint64
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			// hash.Hash.Write never returns an error.
			_, _ = sum.Write(buf[:n])
			total += uint64(n)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return FileDigest{}, newAccessError(path, readErr)
		}
	}

	result := FileDigest{
		Path:      path,
		Size:      total,
		Algorithm: alg,
		Hex:       hex.EncodeToString(sum.Sum(nil)),
	}
	logging.Get("digest").Debug("hashed file", "path", path, "algorithm", alg, "size", total)
	return result, nil
}

// errFileReplaced means path named a different file by the time it was opened.
var errFileReplaced = errors.New("file replaced while opening")

// checkRegular rejects directories, devices, sockets and pipes.
func checkRegular(path string, info os.FileInfo) error {
	if info.IsDir() {
		return &FileAccessError{Path: path, Reason: ReasonIsDirectory}
	}
	if !info.Mode().IsRegular() {
		return &FileAccessError{Path: path, Reason: ReasonNotRegular}
	}
	return nil
}

func (h *Hasher) chunkSize() int {
	if h == nil || h.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return h.ChunkSize
}
