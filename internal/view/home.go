package view

import (
	"context"
	"sort"
	"sync"

	"github.com/alexivanou/cityweather/internal/latest"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/alexivanou/cityweather/internal/route"
	"github.com/alexivanou/cityweather/internal/rowsource"
	"github.com/alexivanou/cityweather/internal/suggest"
	"go.uber.org/zap"
)

// Block is one fetched row window of the grid
type Block struct {
	Window  model.RowWindow    `json:"window"`
	Rows    []model.CityRecord `json:"rows"`
	HasMore bool               `json:"hasMore"`
	Pending bool               `json:"pending"`
	Failed  bool               `json:"failed"`
	Error   string             `json:"error,omitempty"`
}

// HomeSnapshot is an immutable copy of the home page state
type HomeSnapshot struct {
	Query           string   `json:"query"`
	Suggestions     []string `json:"suggestions"`
	ShowSuggestions bool     `json:"showSuggestions"`
	Generation      uint64   `json:"generation"`
	Total           int      `json:"total"`
	TotalKnown      bool     `json:"totalKnown"`
	Blocks          []Block  `json:"blocks"`
}

// Rows returns the rows of all loaded blocks in grid order
func (s HomeSnapshot) Rows() []model.CityRecord {
	rows := make([]model.CityRecord, 0)
	for _, b := range s.Blocks {
		rows = append(rows, b.Rows...)
	}
	return rows
}

// Home owns the search page state. Each slot has one writer: the query is
// written by user actions, suggestions by the suggestion stream and rows
// by the row source of the current generation.
type Home struct {
	searcher rowsource.Searcher
	stream   *suggest.Stream
	logger   *zap.Logger
	onStale  func(Slot)
	events   Broadcaster

	// rowGate tags generations; query and row writes happen under it
	rowGate latest.Gate

	mu              sync.RWMutex
	query           string
	suggestions     []string
	showSuggestions bool
	source          *rowsource.Source
	total           int
	totalKnown      bool
	blocks          map[int]Block
}

// NewHome creates a new home state container. onStale, if set, is called for
// every discarded response with the slot it was meant for.
func NewHome(searcher rowsource.Searcher, fetcher *suggest.Fetcher, logger *zap.Logger, onStale func(Slot)) *Home {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Home{
		searcher:    searcher,
		logger:      logger,
		onStale:     onStale,
		suggestions: []string{},
		blocks:      make(map[int]Block),
	}
	h.stream = suggest.NewStream(fetcher, func() { h.stale(SlotSuggestions) })
	h.source = h.newSource("", h.rowGate.Current())
	return h
}

func (h *Home) newSource(query string, gen uint64) *rowsource.Source {
	return rowsource.New(h.searcher, query, gen, rowsource.WithTotalListener(func(gen uint64, total int) {
		_ = h.rowGate.Apply(gen, func() {
			h.mu.Lock()
			h.total = total
			h.totalKnown = true
			h.mu.Unlock()
		})
	}))
}

func (h *Home) stale(slot Slot) {
	if h.onStale != nil {
		h.onStale(slot)
	}
}

// TypeQuery records a keystroke: the query changes, the suggestion list is
// shown and refreshed, and the grid restarts under a new generation.
func (h *Home) TypeQuery(ctx context.Context, text string) uint64 {
	gen := h.rekey(text, true)
	h.events.Publish(Event{Slot: SlotQuery, Generation: gen})

	h.stream.Keystroke(ctx, text, func(r suggest.Result) {
		h.mu.Lock()
		h.suggestions = r.Names
		h.mu.Unlock()
		h.events.Publish(Event{Slot: SlotSuggestions, Generation: gen})
	})
	return gen
}

// SelectSuggestion commits a suggestion as the query. The list is hidden
// and any suggestion fetch still in flight is dropped.
func (h *Home) SelectSuggestion(text string) uint64 {
	h.stream.Cancel()
	gen := h.rekey(text, false)
	h.events.Publish(Event{Slot: SlotQuery, Generation: gen})
	return gen
}

func (h *Home) rekey(text string, show bool) uint64 {
	gen := h.rowGate.Next()
	_ = h.rowGate.Apply(gen, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.query = text
		h.showSuggestions = show
		h.source = h.newSource(text, gen)
		h.total = 0
		h.totalKnown = false
		h.blocks = make(map[int]Block)
	})
	return gen
}

// RequestWindow fetches a row window of the current query in the
// background. The returned channel is closed once the result was applied or
// discarded. Rows from an older generation never reach the grid.
func (h *Home) RequestWindow(ctx context.Context, w model.RowWindow) (<-chan struct{}, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	var source *rowsource.Source
	_ = h.rowGate.Apply(h.rowGate.Current(), func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		source = h.source
		h.blocks[w.StartRow] = Block{Window: w, Rows: []model.CityRecord{}, Pending: true}
	})
	if source == nil {
		return nil, latest.ErrStale
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		res := <-source.Request(ctx, w)

		err := h.rowGate.Apply(res.Generation, func() {
			block := Block{Window: w, Rows: res.Page.Rows, HasMore: res.Page.HasMore}
			if block.Rows == nil {
				block.Rows = []model.CityRecord{}
			}
			if res.Err != nil {
				block.Failed = true
				block.Error = res.Err.Error()
			}
			h.mu.Lock()
			h.blocks[w.StartRow] = block
			h.mu.Unlock()
		})
		if err != nil {
			h.logger.Debug("Discarded stale rows",
				zap.String("query", res.Query),
				zap.Uint64("generation", res.Generation),
				zap.Int("startRow", w.StartRow))
			h.stale(SlotRows)
			return
		}
		if res.Err != nil {
			h.logger.Warn("Error fetching rows", zap.String("query", res.Query), zap.Error(res.Err))
		}
		h.events.Publish(Event{Slot: SlotRows, Generation: res.Generation})
	}()
	return done, nil
}

// Snapshot returns a copy of the current state
func (h *Home) Snapshot() HomeSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snap := HomeSnapshot{
		Query:           h.query,
		Suggestions:     append([]string{}, h.suggestions...),
		ShowSuggestions: h.showSuggestions,
		Generation:      h.source.Generation(),
		Total:           h.total,
		TotalKnown:      h.totalKnown,
		Blocks:          make([]Block, 0, len(h.blocks)),
	}
	for _, b := range h.blocks {
		b.Rows = append([]model.CityRecord{}, b.Rows...)
		snap.Blocks = append(snap.Blocks, b)
	}
	sort.Slice(snap.Blocks, func(i, j int) bool {
		return snap.Blocks[i].Window.StartRow < snap.Blocks[j].Window.StartRow
	})
	return snap
}

// Subscribe registers for home page change events
func (h *Home) Subscribe(buffer int) (<-chan Event, func()) {
	return h.events.Subscribe(buffer)
}

// OpenCity returns the weather route for a clicked row
func (h *Home) OpenCity(name string) string {
	return route.CityNameToRoute(name)
}
