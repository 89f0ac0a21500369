package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEmptySnapshot is returned when the snapshot input contains no data.
var ErrEmptySnapshot = errors.New("empty session snapshot")

// Load reads a JSON snapshot from path. A path of "-" reads from stdin.
func Load(path string) (SessionMetrics, error) {
	if path == "-" || path == "" {
		return Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return SessionMetrics{}, fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode parses a single JSON snapshot from r.
func Decode(r io.Reader) (SessionMetrics, error) {
	var m SessionMetrics
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return SessionMetrics{}, ErrEmptySnapshot
		}
		return SessionMetrics{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return m, nil
}
