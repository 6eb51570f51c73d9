package suggest

import (
	"context"
	"strings"

	"github.com/alexivanou/cityweather/internal/latest"
	"go.uber.org/zap"
)

// Result is a suggestion list that is still current when delivered
type Result struct {
	Seq   uint64
	Query string
	Names []string
}

// Stream issues one tagged fetch per keystroke without cancelling earlier
// ones. Only the response to the most recent keystroke is delivered;
// anything older is dropped on arrival.
type Stream struct {
	fetcher *Fetcher
	gate    latest.Gate
	onStale func()
}

// NewStream creates a new suggestion stream. onStale, if set, is called for
// every discarded response.
func NewStream(fetcher *Fetcher, onStale func()) *Stream {
	return &Stream{fetcher: fetcher, onStale: onStale}
}

// Keystroke starts a fetch for query and returns its tag. deliver runs at most
// once, under the stream's gate, and only if no newer keystroke or Cancel happened.
// deliver must not call back into the stream.
func (s *Stream) Keystroke(ctx context.Context, query string, deliver func(Result)) uint64 {
	seq := s.gate.Next()

	if strings.TrimSpace(query) == "" {
		_ = s.gate.Apply(seq, func() {
			deliver(Result{Seq: seq, Query: query, Names: []string{}})
		})
		return seq
	}

	go func() {
		names := s.fetcher.FetchBestEffort(ctx, query)
		err := s.gate.Apply(seq, func() {
			deliver(Result{Seq: seq, Query: query, Names: names})
		})
		if err != nil {
			s.fetcher.logger.Debug("Discarded stale suggestions", zap.String("query", query), zap.Uint64("seq", seq))
			if s.onStale != nil {
				s.onStale()
			}
		}
	}()
	return seq
}

// Cancel makes every in-flight keystroke stale
func (s *Stream) Cancel() {
	s.gate.Advance()
}

// Latest returns the tag of the most recent keystroke
func (s *Stream) Latest() uint64 {
	return s.gate.Current()
}
