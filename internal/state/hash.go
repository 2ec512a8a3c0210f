package state

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

const hashBytes = 8192 // only the head of a book file is hashed

// ComputeHash returns the Checksum of the named file.
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Checksum(f)
}

// Checksum hashes the first 8KB read from r. The result is 32 hex chars.
func Checksum(r io.Reader) (string, error) {
	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	hash := sha256.Sum256(buf[:n])
	return hex.EncodeToString(hash[:16]), nil
}
