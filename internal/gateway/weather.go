package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexivanou/cityweather/internal/model"
	"go.uber.org/zap"
)

const (
	// DefaultWeatherBaseURL is the OpenWeatherMap API host
	DefaultWeatherBaseURL = "https://api.openweathermap.org"
	// KelvinOffset is subtracted once when the gateway answers in Kelvin
	KelvinOffset = 273.15
	// NoDescription is shown when the gateway omits the weather description
	NoDescription = "No description available"

	weatherPath = "/data/2.5/weather"
)

// Units is the unit mode sent to the weather gateway. The same value decides
// the temperature conversion, so request and conversion cannot disagree.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsStandard Units = "standard"
)

// ParseUnits validates a configured unit mode
func ParseUnits(s string) (Units, error) {
	switch Units(strings.ToLower(strings.TrimSpace(s))) {
	case "", UnitsMetric:
		return UnitsMetric, nil
	case UnitsStandard:
		return UnitsStandard, nil
	default:
		return "", fmt.Errorf("unsupported weather units %q (want metric or standard)", s)
	}
}

// Celsius converts a raw gateway temperature reported in this unit mode
func (u Units) Celsius(raw float64) float64 {
	if u == UnitsStandard {
		return raw - KelvinOffset
	}
	return raw
}

// FormatCelsius renders a temperature with one decimal
func FormatCelsius(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// WeatherConfig configures the weather gateway client
type WeatherConfig struct {
	BaseURL string
	APIKey  string
	Units   Units
	Breaker BreakerSettings
}

// WeatherClient looks up current conditions by city name
type WeatherClient struct {
	baseURL   string
	apiKey    string
	units     Units
	transport *transport
	observer  Observer
	logger    *zap.Logger
}

// NewWeatherClient creates a new weather gateway client
func NewWeatherClient(httpClient *http.Client, cfg WeatherConfig, observer Observer, logger *zap.Logger) *WeatherClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWeatherBaseURL
	}
	if cfg.Units == "" {
		cfg.Units = UnitsMetric
	}
	if observer == nil {
		observer = Observers(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		units:     cfg.Units,
		transport: newTransport("weather", httpClient, cfg.Breaker, logger),
		observer:  observer,
		logger:    logger,
	}
}

// Units returns the unit mode this client requests
func (c *WeatherClient) Units() Units {
	return c.units
}

type weatherResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current fetches current conditions for a city name
func (c *WeatherClient) Current(ctx context.Context, city string) (*model.WeatherSnapshot, error) {
	start := time.Now()
	snapshot, statusCode, err := c.current(ctx, city)

	c.observer.ObserveCall(ctx, Call{
		Gateway:    GatewayWeather,
		Query:      city,
		Outcome:    Classify(err),
		StatusCode: statusCode,
		Duration:   time.Since(start),
	})

	if err != nil {
		c.logger.Debug("Weather gateway call failed", zap.String("city", city), zap.Error(err))
		return nil, err
	}
	return snapshot, nil
}

func (c *WeatherClient) current(ctx context.Context, city string) (*model.WeatherSnapshot, int, error) {
	if c.apiKey == "" {
		return nil, 0, fmt.Errorf("%w: weather api key is empty", ErrNotConfigured)
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", c.apiKey)
	values.Set("units", string(c.units))

	resp, err := c.transport.get(ctx, c.baseURL+weatherPath+"?"+values.Encode())
	if err != nil {
		return nil, statusCodeOf(err), err
	}

	var payload weatherResponse
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, resp.statusCode, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if payload.Main == nil {
		return nil, resp.statusCode, fmt.Errorf("%w: missing main block", ErrParseFailure)
	}

	name := payload.Name
	if name == "" {
		name = city
	}
	description := NoDescription
	if len(payload.Weather) > 0 && payload.Weather[0].Description != "" {
		description = payload.Weather[0].Description
	}

	return &model.WeatherSnapshot{
		CityDisplayName:    name,
		TemperatureCelsius: c.units.Celsius(payload.Main.Temp),
		Description:        description,
		HumidityPercent:    int(math.Round(payload.Main.Humidity)),
		WindSpeed:          payload.Wind.Speed,
		Pressure:           int(math.Round(payload.Main.Pressure)),
	}, resp.statusCode, nil
}
