package model

// WeatherSnapshot holds the current conditions for one city.
// TemperatureCelsius is already converted; nothing downstream converts it again.
type WeatherSnapshot struct {
	CityDisplayName    string  `json:"city"`
	TemperatureCelsius float64 `json:"temperature_celsius"`
	Description        string  `json:"description"`
	HumidityPercent    int     `json:"humidity_percent"`
	WindSpeed          float64 `json:"wind_speed"`
	Pressure           int     `json:"pressure"`
}
