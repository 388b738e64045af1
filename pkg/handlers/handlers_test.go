package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsoeiu/LegatumM/pkg/handlers"
	"github.com/vsoeiu/LegatumM/pkg/music"
)

type fakeResolver struct {
	last string
}

func (f *fakeResolver) Resolve(_ context.Context, q string) (music.Resolution, error) {
	f.last = q
	if strings.EqualFold(q, "queen") || q == "Bohemian Rhapsody - Queen" {
		p := music.NewArtistProfile("Queen", []string{"rock"}, "https://img/queen.jpg", 88, "100")
		return music.Resolution{
			Artist:    music.NewResolvedArtist(p, []music.Track{{Name: "Bohemian Rhapsody"}}, nil, music.SourcePrimary),
			Biography: "Banda británica de rock.",
		}, nil
	}
	if q == "boom" {
		return music.Resolution{}, errors.New("boom")
	}
	return music.Resolution{}, fmt.Errorf("resolving %q: %w", q, music.ErrNotFound)
}

type fakeSuggester struct{}

func (fakeSuggester) Suggestions(_ context.Context, partial string) []music.Suggestion {
	return []music.Suggestion{{Kind: music.SuggestArtist, Label: "Queen"}}
}

type fakeBrowser struct {
	order string
	genre string
}

func (f *fakeBrowser) Discover(_ context.Context, order string) []music.Card {
	f.order = order
	return []music.Card{{Name: "Queen", Image: music.PlaceholderImage, Popularity: 88}}
}

func (f *fakeBrowser) Genres() []string { return []string{"Rock", "Hip Hop"} }

func (f *fakeBrowser) GenreCollection(_ context.Context, genre string) []music.Card {
	f.genre = genre
	return music.OfflineGrid()
}

func newApp() (*handlers.Application, *fakeResolver, *fakeBrowser) {
	logger, _ := logtest.NewNullLogger()
	res := &fakeResolver{}
	br := &fakeBrowser{}
	return &handlers.Application{
		Resolver:    res,
		Suggester:   fakeSuggester{},
		Browser:     br,
		OfflineMode: true,
		Logger:      logger,
	}, res, br
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHomeHandler(t *testing.T) {
	app, _, _ := newApp()
	rr := serve(t, http.HandlerFunc(app.Home), httptest.NewRequest(http.MethodGet, "/", nil))
	body := rr.Body.String()
	if !strings.Contains(body, "<form") {
		t.Errorf("expected form in response")
	}
}

func TestHomeRendersResolution(t *testing.T) {
	app, res, _ := newApp()
	form := url.Values{"artista": {"Bohemian Rhapsody - Queen"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := serve(t, http.HandlerFunc(app.Home), req)
	body := rr.Body.String()
	assert.Equal(t, "Bohemian Rhapsody - Queen", res.last)
	assert.Contains(t, body, "<h2>Queen</h2>")
	assert.Contains(t, body, "Banda británica de rock.")
	assert.Contains(t, body, "https://img/queen.jpg")
}

func TestHomeNotFound(t *testing.T) {
	app, _, _ := newApp()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("artista=nadie"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serve(t, http.HandlerFunc(app.Home), req)
	assert.Contains(t, rr.Body.String(), "No encontrado")
}

func TestArtistJSON(t *testing.T) {
	app, _, _ := newApp()
	h := app.Routes(nil, nil)

	rr := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/artist?q=queen", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got music.Resolution
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "Queen", got.Artist.Profile.Name)
	assert.Equal(t, music.SourcePrimary, got.Artist.Source)

	rr = serve(t, h, httptest.NewRequest(http.MethodPost, "/api/artist", strings.NewReader(`{"query":"Queen"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestArtistJSONErrors(t *testing.T) {
	app, _, _ := newApp()
	h := app.Routes(nil, nil)

	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"missing query", httptest.NewRequest(http.MethodGet, "/api/artist", nil), http.StatusBadRequest},
		{"blank query", httptest.NewRequest(http.MethodGet, "/api/artist?q=+++", nil), http.StatusBadRequest},
		{"unknown field", httptest.NewRequest(http.MethodPost, "/api/artist", strings.NewReader(`{"artist":"Queen"}`)), http.StatusBadRequest},
		{"not found", httptest.NewRequest(http.MethodGet, "/api/artist?q=xyzzy-nonexistent-artist-qqq", nil), http.StatusNotFound},
		{"internal", httptest.NewRequest(http.MethodGet, "/api/artist?q=boom", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, h, tt.req)
			assert.Equal(t, tt.code, rr.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestBrowseEndpoints(t *testing.T) {
	app, _, br := newApp()
	h := app.Routes(nil, nil)

	rr := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/artists?order=popularity", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, music.OrderPopularity, br.order)

	rr = serve(t, h, httptest.NewRequest(http.MethodGet, "/api/artists?order=random", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(t, h, httptest.NewRequest(http.MethodGet, "/api/genres", nil))
	assert.JSONEq(t, `["Rock","Hip Hop"]`, rr.Body.String())

	rr = serve(t, h, httptest.NewRequest(http.MethodGet, "/api/genres/Hip%20Hop", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Hip Hop", br.genre)

	rr = serve(t, h, httptest.NewRequest(http.MethodGet, "/api/suggest?q=que", nil))
	assert.JSONEq(t, `[{"kind":"artist","label":"Queen"}]`, rr.Body.String())
}

func TestOfflineEndpoint(t *testing.T) {
	app, _, _ := newApp()
	rr := serve(t, app.Routes(nil, nil), httptest.NewRequest(http.MethodGet, "/api/offline?name=Queen", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got music.Resolution
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, music.SourceOffline, got.Artist.Source)

	app.OfflineMode = false
	rr = serve(t, app.Routes(nil, nil), httptest.NewRequest(http.MethodGet, "/api/offline?name=Queen", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSecurityHeadersAndMetrics(t *testing.T) {
	app, _, _ := newApp()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	rr := serve(t, app.Routes(nil, metrics), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "ok", rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Empty(t, rr.Header().Get("Cache-Control"))

	rr = serve(t, app.Routes(nil, nil), httptest.NewRequest(http.MethodGet, "/api/genres", nil))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "frame-src https://www.youtube.com")
}

func TestThrottleRejectsOverAllowance(t *testing.T) {
	app, _, _ := newApp()
	throttle, err := handlers.NewThrottle(2, time.Minute)
	require.NoError(t, err)
	h := app.Routes(throttle, nil)

	for i := 0; i < 2; i++ {
		rr := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/genres", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/genres", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodGet, "/api/genres", nil)
	other.RemoteAddr = "203.0.113.9:4000"
	assert.Equal(t, http.StatusOK, serve(t, h, other).Code, "clients are throttled independently")
	assert.True(t, throttle.Allow("198.51.100.1"))
}
