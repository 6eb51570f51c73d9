package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const londonPage = `{
	"nhits": 23,
	"records": [
		{"recordid": "r1", "fields": {"name": "London", "cou_name_en": "United Kingdom", "population": 8961989, "coordinates": [51.50853, -0.12574], "timezone": "Europe/London"}},
		{"recordid": "r2", "fields": {"name": "Londonderry", "cou_name_en": "United Kingdom", "coordinates": [54.9981, -7.30934]}}
	]
}`

type recordingObserver struct {
	mu    sync.Mutex
	calls []Call
}

func (o *recordingObserver) ObserveCall(_ context.Context, call Call) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, call)
}

func TestSearchClient_Search(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, searchPath, r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"dataset": q.Get("dataset"),
			"q":       q.Get("q"),
			"start":   q.Get("start"),
			"rows":    q.Get("rows"),
			"sort":    q.Get("sort"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(londonPage))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewSearchClient(srv.Client(), SearchConfig{BaseURL: srv.URL}, obs, nil)

	res, err := client.Search(context.Background(), SearchParams{Query: "Lon don", Start: 20, Rows: 10, Sort: "name"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"dataset": DefaultDataset,
		"q":       "Lon don",
		"start":   "20",
		"rows":    "10",
		"sort":    "name",
	}, gotQuery)

	assert.Equal(t, 23, res.NHits)
	require.Len(t, res.Records, 2)
	london := res.Records[0]
	assert.Equal(t, "r1", london.ID)
	assert.Equal(t, "London", london.Name)
	assert.Equal(t, "United Kingdom", london.CountryName)
	assert.Equal(t, int64(8961989), london.Population)
	assert.Equal(t, 51.50853, london.Latitude)
	assert.Equal(t, -0.12574, london.Longitude)
	assert.Equal(t, "Europe/London", london.Timezone)
	assert.Zero(t, res.Records[1].Population)

	require.Len(t, obs.calls, 1)
	assert.Equal(t, OutcomeOK, obs.calls[0].Outcome)
	assert.Equal(t, 23, obs.calls[0].Hits)
	assert.Equal(t, http.StatusOK, obs.calls[0].StatusCode)
}

func TestSearchClient_OmitsEmptySort(t *testing.T) {
	var hasSort bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasSort = r.URL.Query()["sort"]
		w.Write([]byte(`{"nhits": 0, "records": []}`))
	}))
	defer srv.Close()

	client := NewSearchClient(srv.Client(), SearchConfig{BaseURL: srv.URL}, nil, nil)
	res, err := client.Search(context.Background(), SearchParams{Query: "x", Rows: 5})
	require.NoError(t, err)
	assert.False(t, hasSort)
	assert.Empty(t, res.Records)
}

func TestSearchClient_Failures(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedOutcome Outcome
		checkErr        func(t *testing.T, err error)
	}{
		{
			name:            "non-2xx status",
			status:          http.StatusBadRequest,
			body:            `{"error": "bad"}`,
			expectedOutcome: OutcomeGateway,
			checkErr: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
				assert.Equal(t, "Bad Request", statusErr.Status)
			},
		},
		{
			name:            "server error",
			status:          http.StatusServiceUnavailable,
			body:            ``,
			expectedOutcome: OutcomeGateway,
		},
		{
			name:            "malformed json",
			status:          http.StatusOK,
			body:            `{"nhits": `,
			expectedOutcome: OutcomeParse,
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrParseFailure)
			},
		},
		{
			name:            "missing nhits",
			status:          http.StatusOK,
			body:            `{"records": []}`,
			expectedOutcome: OutcomeParse,
		},
		{
			name:            "coordinates missing",
			status:          http.StatusOK,
			body:            `{"nhits": 1, "records": [{"recordid": "a", "fields": {"name": "Nowhere"}}]}`,
			expectedOutcome: OutcomeParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			obs := &recordingObserver{}
			client := NewSearchClient(srv.Client(), SearchConfig{BaseURL: srv.URL}, obs, nil)

			res, err := client.Search(context.Background(), SearchParams{Query: "x", Rows: 10})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.expectedOutcome, Classify(err))
			if tt.checkErr != nil {
				tt.checkErr(t, err)
			}
			require.Len(t, obs.calls, 1)
			assert.Equal(t, tt.expectedOutcome, obs.calls[0].Outcome)
		})
	}
}

func TestSearchClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	client := NewSearchClient(nil, SearchConfig{BaseURL: baseURL}, nil, nil)
	_, err := client.Search(context.Background(), SearchParams{Query: "x", Rows: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.Equal(t, OutcomeNetwork, Classify(err))
}

func TestSearchClient_BreakerOpens(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	settings := DefaultBreakerSettings()
	settings.ConsecutiveFailures = 2
	client := NewSearchClient(srv.Client(), SearchConfig{BaseURL: srv.URL, Breaker: settings}, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := client.Search(context.Background(), SearchParams{Query: "x", Rows: 10})
		require.Error(t, err)
	}

	_, err := client.Search(context.Background(), SearchParams{Query: "x", Rows: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.Equal(t, 2, hits)
}

func TestSearchClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	settings := DefaultBreakerSettings()
	settings.ConsecutiveFailures = 1
	client := NewSearchClient(srv.Client(), SearchConfig{BaseURL: srv.URL, Breaker: settings}, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := client.Search(context.Background(), SearchParams{Query: "x", Rows: 10})
		assert.NotErrorIs(t, err, ErrBreakerOpen)
		assert.Equal(t, OutcomeGateway, Classify(err))
	}
}
