package common

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/dtnitsch/topic-scores/pkg/storage"
)

// ContentHash computes SHA256 hash of content and returns hex string.
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// ReadInput returns the raw input: the named file, or stdin when path is "" or "-".
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	s := &storage.Storage{}
	return s.ReadFile(path)
}
