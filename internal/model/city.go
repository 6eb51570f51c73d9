package model

import "fmt"

// CityRecord is one normalized row of the city search grid
type CityRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CountryName string  `json:"country_name"`
	Population  int64   `json:"population"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
}

// MaxWindowSize is the widest row window one gateway page can fill
const MaxWindowSize = 10

// RowWindow is a half-open range [StartRow, EndRow) requested by the grid
type RowWindow struct {
	StartRow int `json:"startRow" validate:"gte=0"`
	EndRow   int `json:"endRow" validate:"gtfield=StartRow"`
}

// Validate checks the window bounds
func (w RowWindow) Validate() error {
	if w.StartRow < 0 {
		return fmt.Errorf("invalid row window: startRow %d is negative", w.StartRow)
	}
	if w.EndRow <= w.StartRow {
		return fmt.Errorf("invalid row window: endRow %d must be greater than startRow %d", w.EndRow, w.StartRow)
	}
	if w.Size() > MaxWindowSize {
		return fmt.Errorf("invalid row window: %d rows requested, at most %d per window", w.Size(), MaxWindowSize)
	}
	return nil
}

// Size returns the number of rows covered by the window
func (w RowWindow) Size() int {
	return w.EndRow - w.StartRow
}

// PageResult is what the row source hands back to the grid for one window
type PageResult struct {
	Rows    []CityRecord `json:"rows"`
	HasMore bool         `json:"hasMore"`
	Total   int          `json:"total"`
}
