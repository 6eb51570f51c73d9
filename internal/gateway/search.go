package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexivanou/cityweather/internal/model"
	"go.uber.org/zap"
)

const (
	// DefaultSearchBaseURL is the public opendatasoft instance
	DefaultSearchBaseURL = "https://public.opendatasoft.com"
	// DefaultDataset is the GeoNames extract of cities with 1000+ inhabitants
	DefaultDataset = "geonames-all-cities-with-a-population-1000"

	searchPath = "/api/records/1.0/search/"
)

// SearchParams are the query parameters of one search call
type SearchParams struct {
	Query string
	Start int
	Rows  int
	Sort  string
}

// SearchResult is a normalized page of search records
type SearchResult struct {
	Records []model.CityRecord
	NHits   int
}

// SearchConfig configures the search gateway client
type SearchConfig struct {
	BaseURL string
	Dataset string
	Breaker BreakerSettings
}

// SearchClient talks to the paged city search endpoint
type SearchClient struct {
	baseURL   string
	dataset   string
	transport *transport
	observer  Observer
	logger    *zap.Logger
}

// NewSearchClient creates a new search gateway client
func NewSearchClient(httpClient *http.Client, cfg SearchConfig, observer Observer, logger *zap.Logger) *SearchClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSearchBaseURL
	}
	if cfg.Dataset == "" {
		cfg.Dataset = DefaultDataset
	}
	if observer == nil {
		observer = Observers(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		dataset:   cfg.Dataset,
		transport: newTransport("search", httpClient, cfg.Breaker, logger),
		observer:  observer,
		logger:    logger,
	}
}

type searchResponse struct {
	NHits   *int           `json:"nhits"`
	Records []searchRecord `json:"records"`
}

type searchRecord struct {
	RecordID string       `json:"recordid"`
	Fields   searchFields `json:"fields"`
}

type searchFields struct {
	Name        string    `json:"name"`
	CountryName string    `json:"cou_name_en"`
	Population  int64     `json:"population"`
	Coordinates []float64 `json:"coordinates"`
	Timezone    string    `json:"timezone"`
}

// Search issues one GET against the search endpoint
func (c *SearchClient) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	start := time.Now()
	result, statusCode, err := c.search(ctx, params)

	call := Call{
		Gateway:    GatewaySearch,
		Query:      params.Query,
		Start:      params.Start,
		Rows:       params.Rows,
		Outcome:    Classify(err),
		StatusCode: statusCode,
		Duration:   time.Since(start),
	}
	if result != nil {
		call.Hits = result.NHits
	}
	c.observer.ObserveCall(ctx, call)

	if err != nil {
		c.logger.Debug("Search gateway call failed",
			zap.String("query", params.Query),
			zap.Int("start", params.Start),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}

func (c *SearchClient) search(ctx context.Context, params SearchParams) (*SearchResult, int, error) {
	resp, err := c.transport.get(ctx, c.buildURL(params))
	if err != nil {
		return nil, statusCodeOf(err), err
	}

	var payload searchResponse
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, resp.statusCode, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if payload.NHits == nil {
		return nil, resp.statusCode, fmt.Errorf("%w: missing nhits", ErrParseFailure)
	}

	records := make([]model.CityRecord, 0, len(payload.Records))
	for i, rec := range payload.Records {
		city, err := normalizeRecord(rec)
		if err != nil {
			return nil, resp.statusCode, fmt.Errorf("%w: record %d: %v", ErrParseFailure, i, err)
		}
		records = append(records, city)
	}

	return &SearchResult{Records: records, NHits: *payload.NHits}, resp.statusCode, nil
}

func (c *SearchClient) buildURL(params SearchParams) string {
	values := url.Values{}
	values.Set("dataset", c.dataset)
	values.Set("q", params.Query)
	values.Set("start", strconv.Itoa(params.Start))
	values.Set("rows", strconv.Itoa(params.Rows))
	if params.Sort != "" {
		values.Set("sort", params.Sort)
	}
	return c.baseURL + searchPath + "?" + values.Encode()
}

// normalizeRecord maps the gateway's [lat, lon] tuple onto named fields
func normalizeRecord(rec searchRecord) (model.CityRecord, error) {
	if rec.Fields.Name == "" {
		return model.CityRecord{}, fmt.Errorf("missing name")
	}
	if len(rec.Fields.Coordinates) != 2 {
		return model.CityRecord{}, fmt.Errorf("coordinates must be [lat, lon], got %d values", len(rec.Fields.Coordinates))
	}

	return model.CityRecord{
		ID:          rec.RecordID,
		Name:        rec.Fields.Name,
		CountryName: rec.Fields.CountryName,
		Population:  rec.Fields.Population,
		Latitude:    rec.Fields.Coordinates[0],
		Longitude:   rec.Fields.Coordinates[1],
		Timezone:    rec.Fields.Timezone,
	}, nil
}
