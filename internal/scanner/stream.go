// Package scanner adapts the external BLE helper's JSON line stream
// into typed advertisements. The daemon never talks to the radio
// itself; it consumes whatever tuples the helper reports.
package scanner

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/Jay1/budsctl/internal/logger"
)

// StreamSource decodes newline-delimited advertisement JSON from a
// reader, typically the helper's stdout or the daemon's own stdin.
type StreamSource struct {
	out  chan Advertisement
	done chan struct{}
}

func NewStreamSource(r io.Reader) *StreamSource {
	s := &StreamSource{
		out:  make(chan Advertisement, 8),
		done: make(chan struct{}),
	}

	go s.decode(r)

	return s
}

func (s *StreamSource) Advertisements() <-chan Advertisement {
	return s.out
}

func (s *StreamSource) Close() error {
	close(s.done)
	return nil
}

func (s *StreamSource) decode(r io.Reader) {
	defer close(s.out)

	lines := bufio.NewScanner(r)
	for lines.Scan() {
		line := strings.TrimSpace(lines.Text())
		if line == "" {
			continue
		}

		var adv Advertisement
		if err := json.Unmarshal([]byte(line), &adv); err != nil {
			// Malformed lines are skipped, never fatal
			logger.Warn().Err(err).Msg("Skipping malformed advertisement line")
			continue
		}

		select {
		case s.out <- adv:
		case <-s.done:
			return
		}
	}

	if err := lines.Err(); err != nil {
		logger.Warn().Err(err).Msg("Advertisement stream ended with error")
	}
}
