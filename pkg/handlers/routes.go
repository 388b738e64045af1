package handlers

import "net/http"

// Routes registers every endpoint on a new ServeMux. metrics, when non-nil,
// is served at /metrics outside the throttle; throttle may be nil.
func (app *Application) Routes(throttle *Throttle, metrics http.Handler) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /{$}", app.Home)
	api.HandleFunc("POST /{$}", app.Home)
	api.HandleFunc("GET /api/artist", app.ArtistJSON)
	api.HandleFunc("POST /api/artist", app.ArtistJSON)
	api.HandleFunc("GET /api/suggest", app.SuggestJSON)
	api.HandleFunc("GET /api/artists", app.ArtistsJSON)
	api.HandleFunc("GET /api/genres", app.GenresJSON)
	api.HandleFunc("GET /api/genres/{name}", app.GenreJSON)
	api.HandleFunc("GET /api/offline", app.OfflineJSON)

	var h http.Handler = api
	if throttle != nil {
		h = throttle.Middleware(h)
	}

	root := http.NewServeMux()
	root.Handle("/", h)
	if metrics != nil {
		root.Handle("GET /metrics", metrics)
	}
	return SecurityHeaders(root)
}
