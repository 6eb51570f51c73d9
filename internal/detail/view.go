package detail

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexivanou/cityweather/internal/gateway"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/alexivanou/cityweather/internal/route"
)

// NoDataMessage is shown when the route parameter cannot be turned into a city
const NoDataMessage = "No data available"

// State of the weather view
type State int

const (
	StateLoading State = iota
	StateError
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// MarshalText lets State serialize as its name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// View is the complete render model of the weather page. It is rebuilt from
// scratch on every city change and never patched.
type View struct {
	State    State                  `json:"state"`
	City     string                 `json:"city"`
	Message  string                 `json:"message,omitempty"`
	Snapshot *model.WeatherSnapshot `json:"weather,omitempty"`
}

// WeatherFetcher is the part of the weather gateway the loader needs
type WeatherFetcher interface {
	Current(ctx context.Context, city string) (*model.WeatherSnapshot, error)
}

// Load runs one lookup for a raw route parameter and returns the finished
// view together with the error that produced an Error state, if any.
func Load(ctx context.Context, fetcher WeatherFetcher, param string) (View, error) {
	city, err := route.PathToCityName(param)
	if err != nil {
		return View{State: StateError, City: param, Message: NoDataMessage}, err
	}
	if city == "" {
		return View{State: StateError, Message: NoDataMessage}, fmt.Errorf("%w: empty city name", route.ErrRouteDecode)
	}

	snap, err := fetcher.Current(ctx, city)
	if err != nil {
		return View{State: StateError, City: city, Message: errorMessage(err)}, err
	}
	return View{State: StateLoaded, City: city, Snapshot: snap}, nil
}

func errorMessage(err error) string {
	var statusErr *gateway.StatusError
	switch {
	case errors.As(err, &statusErr):
		return "Failed to fetch weather data: " + statusErr.Status
	case errors.Is(err, gateway.ErrParseFailure):
		return "Failed to fetch weather data: malformed response"
	case errors.Is(err, gateway.ErrNotConfigured):
		return "Failed to fetch weather data: weather service is not configured"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Failed to fetch weather data: request cancelled"
	default:
		return "Failed to fetch weather data: weather service unreachable"
	}
}

// Render returns the display lines of the view
func (v View) Render() []string {
	switch v.State {
	case StateLoading:
		return []string{"Loading..."}
	case StateError:
		return []string{"Error: " + v.Message}
	}
	if v.Snapshot == nil {
		return []string{NoDataMessage}
	}

	s := v.Snapshot
	return []string{
		s.CityDisplayName,
		fmt.Sprintf("Temperature: %s°C", gateway.FormatCelsius(s.TemperatureCelsius)),
		fmt.Sprintf("Description: %s", s.Description),
		fmt.Sprintf("Humidity: %d%%", s.HumidityPercent),
		fmt.Sprintf("Wind Speed: %g m/s", s.WindSpeed),
		fmt.Sprintf("Pressure: %d hPa", s.Pressure),
	}
}
