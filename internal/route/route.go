package route

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// WeatherPrefix is the path prefix of the per-city weather view
const WeatherPrefix = "/weather/"

// ErrRouteDecode is returned for a route parameter that is not valid percent-encoding
var ErrRouteDecode = errors.New("malformed route parameter")

// CityNameToRoute builds the weather view path for a city name
func CityNameToRoute(name string) string {
	return WeatherPrefix + url.PathEscape(name)
}

// PathToCityName decodes a route parameter back into a lookup key.
// The parameter is untrusted: it is percent-decoded and trimmed.
func PathToCityName(param string) (string, error) {
	name, err := url.PathUnescape(param)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRouteDecode, err)
	}
	return strings.TrimSpace(name), nil
}

// CityNameFromPath extracts and decodes the city name from a full weather path
func CityNameFromPath(path string) (string, error) {
	param, ok := strings.CutPrefix(path, WeatherPrefix)
	if !ok || param == "" || strings.Contains(param, "/") {
		return "", fmt.Errorf("%w: %q is not a weather route", ErrRouteDecode, path)
	}
	return PathToCityName(param)
}
