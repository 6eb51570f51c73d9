package gateway

import (
	"context"
	"time"
)

const (
	GatewaySearch  = "search"
	GatewayWeather = "weather"
)

// Call describes one finished gateway request
type Call struct {
	Gateway    string
	Query      string
	Start      int
	Rows       int
	Outcome    Outcome
	StatusCode int
	Hits       int
	Duration   time.Duration
}

// Observer receives every finished gateway call
type Observer interface {
	ObserveCall(ctx context.Context, call Call)
}

// Observers fans a call out to several observers
type Observers []Observer

func (o Observers) ObserveCall(ctx context.Context, call Call) {
	for _, obs := range o {
		if obs != nil {
			obs.ObserveCall(ctx, call)
		}
	}
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, call Call)

func (f ObserverFunc) ObserveCall(ctx context.Context, call Call) {
	f(ctx, call)
}
