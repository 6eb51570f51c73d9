package model

// SuggestResponse represents the response for suggestion requests.
// Seq echoes the caller's tag so a browser can keep only the latest answer.
type SuggestResponse struct {
	Seq         uint64   `json:"seq"`
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// SuggestRequest is one keystroke sent over the suggestion socket
type SuggestRequest struct {
	Query string `json:"query"`
}

// RouteResponse carries the weather view path for a city name
type RouteResponse struct {
	City string `json:"city"`
	Path string `json:"path"`
}

// WeatherResponse represents the weather view of one city
type WeatherResponse struct {
	State   string           `json:"state"`
	City    string           `json:"city"`
	Message string           `json:"message,omitempty"`
	Weather *WeatherSnapshot `json:"weather,omitempty"`
	Lines   []string         `json:"lines"`
}

// CallsResponse lists journaled gateway calls
type CallsResponse struct {
	Calls []GatewayCall `json:"calls"`
	Count int           `json:"count"`
}
