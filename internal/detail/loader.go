package detail

import (
	"context"
	"sync"

	"github.com/alexivanou/cityweather/internal/latest"
	"github.com/alexivanou/cityweather/internal/route"
	"github.com/alexivanou/cityweather/internal/view"
	"go.uber.org/zap"
)

// Loader keeps the weather view in sync with the current route parameter.
// Every navigation starts a fresh lookup; a response for a parameter that is
// no longer current is dropped, so a late answer for an old city never
// overwrites the view of the new one.
type Loader struct {
	fetcher WeatherFetcher
	logger  *zap.Logger
	onStale func()
	events  view.Broadcaster

	navMu      sync.Mutex
	keyed      latest.Keyed[string]
	started    bool
	generation uint64

	mu      sync.RWMutex
	current View
}

// NewLoader creates a new weather view loader. onStale, if set, is called for
// every discarded response.
func NewLoader(fetcher WeatherFetcher, logger *zap.Logger, onStale func()) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		fetcher: fetcher,
		logger:  logger,
		onStale: onStale,
		current: View{State: StateLoading},
	}
}

// Navigate switches the view to a raw route parameter. Navigating to the
// parameter that is already current is a no-op; use Reload to refetch.
func (l *Loader) Navigate(ctx context.Context, param string) {
	l.navMu.Lock()
	defer l.navMu.Unlock()

	if l.started && l.keyed.Key() == param {
		return
	}
	l.started = true
	l.start(ctx, l.keyed.Switch(param))
}

// Reload refetches the current parameter and drops any answer still in flight
func (l *Loader) Reload(ctx context.Context) {
	l.navMu.Lock()
	defer l.navMu.Unlock()

	if !l.started {
		return
	}
	l.start(ctx, l.keyed.Switch(l.keyed.Key()))
}

// must hold navMu
func (l *Loader) start(ctx context.Context, ticket latest.Ticket[string]) {
	l.generation++
	gen := l.generation

	city, _ := route.PathToCityName(ticket.Key)
	_ = l.keyed.Apply(ticket, func() {
		l.set(View{State: StateLoading, City: city})
	})
	l.events.Publish(view.Event{Slot: view.SlotWeather, Generation: gen})

	go func() {
		v, err := Load(ctx, l.fetcher, ticket.Key)
		if err != nil {
			l.logger.Warn("Error fetching weather", zap.String("param", ticket.Key), zap.Error(err))
		}

		applyErr := l.keyed.Apply(ticket, func() {
			l.set(v)
		})
		if applyErr != nil {
			l.logger.Debug("Discarded stale weather response", zap.String("param", ticket.Key))
			if l.onStale != nil {
				l.onStale()
			}
			return
		}
		l.events.Publish(view.Event{Slot: view.SlotWeather, Generation: gen})
	}()
}

func (l *Loader) set(v View) {
	l.mu.Lock()
	l.current = v
	l.mu.Unlock()
}

// View returns the current weather view
func (l *Loader) View() View {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Param returns the current route parameter
func (l *Loader) Param() string {
	return l.keyed.Key()
}

// Subscribe registers for weather view change events
func (l *Loader) Subscribe(buffer int) (<-chan view.Event, func()) {
	return l.events.Subscribe(buffer)
}
