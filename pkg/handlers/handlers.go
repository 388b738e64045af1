// Package handlers exposes the resolution engine over HTTP: a small search
// page at "/" and a JSON API under /api. Handlers only translate between HTTP
// and the music package; every upstream decision lives in the engine.
package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vsoeiu/LegatumM/pkg/music"
)

// Resolver resolves free-text queries. *music.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, query string) (music.Resolution, error)
}

// Suggester feeds autocomplete. *spotify.Client satisfies it.
type Suggester interface {
	Suggestions(ctx context.Context, partial string) []music.Suggestion
}

// Browser serves the discovery and genre views. *music.Browser satisfies it.
type Browser interface {
	Discover(ctx context.Context, order string) []music.Card
	Genres() []string
	GenreCollection(ctx context.Context, genre string) []music.Card
}

// Application holds the dependencies of the routes.
type Application struct {
	Resolver  Resolver
	Suggester Suggester
	Browser   Browser
	// OfflineMode enables the offline preview endpoint.
	OfflineMode bool
	Logger      logrus.FieldLogger
}

func (app *Application) logger() logrus.FieldLogger {
	if app.Logger == nil {
		return logrus.StandardLogger()
	}
	return app.Logger
}

var homeTmpl = template.Must(template.New("home").Parse(`<!doctype html>
<html lang="es">
<head><meta charset="utf-8"><title>Legatum</title></head>
<body>
<h1>Legatum</h1>
<form action="/" method="post">
	<input type="text" name="artista" placeholder="Artista o Canción - Artista" value="{{.Query}}">
	<button type="submit">Buscar</button>
</form>
{{with .Error}}<p class="error">{{.}}</p>{{end}}
{{with .Result}}
<section>
	<img src="{{.Artist.Profile.Image}}" alt="{{.Artist.Profile.Name}}" width="200">
	<h2>{{.Artist.Profile.Name}}</h2>
	{{if .Artist.Degraded}}<p>Modo respaldo ({{.Artist.Source}})</p>{{end}}
	<p>Popularidad {{.Artist.Profile.Popularity}} · Seguidores {{.Artist.Profile.Followers}}</p>
	{{with .Artist.Profile.Genres}}<p>{{range .}}<span>{{.}}</span> {{end}}</p>{{end}}
	{{with .Biography}}<p>{{.}}</p>{{end}}
	{{with .LeadVideoID}}<iframe width="560" height="315" src="https://www.youtube.com/embed/{{.}}" allowfullscreen></iframe>{{end}}
	{{with .Artist.Tracks}}<h3>Top canciones</h3><ol>{{range .}}<li>{{.Name}}</li>{{end}}</ol>{{end}}
	{{with .Artist.Albums}}<h3>Álbumes</h3><ul>{{range .}}<li>{{.Name}} {{.ReleaseDate}}</li>{{end}}</ul>{{end}}
</section>
{{end}}
</body>
</html>`))

type homeView struct {
	Query  string
	Result *music.Resolution
	Error  string
}

// Home renders the search form. A POST with the "artista" field resolves
// the query and renders the profile below the form.
func (app *Application) Home(w http.ResponseWriter, r *http.Request) {
	var view homeView
	if r.Method == http.MethodPost {
		view.Query = strings.TrimSpace(r.FormValue("artista"))
		if view.Query != "" {
			res, err := app.Resolver.Resolve(r.Context(), view.Query)
			switch {
			case errors.Is(err, music.ErrNotFound):
				view.Error = "No encontrado"
			case err != nil:
				app.logger().WithError(err).Error("resolve failed")
				view.Error = "Error interno"
			default:
				view.Result = &res
			}
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTmpl.Execute(w, view); err != nil {
		app.logger().WithError(err).Error("render home")
	}
}

// ArtistJSON resolves a query given as the "q" parameter or, for POST, as a
// JSON body {"query": "..."}. Unknown artists yield 404.
func (app *Application) ArtistJSON(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if r.Method == http.MethodPost {
		var req struct {
			Query string `json:"query"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		query = req.Query
	}
	if strings.TrimSpace(query) == "" {
		respondJSONError(w, http.StatusBadRequest, "query is required")
		return
	}

	res, err := app.Resolver.Resolve(r.Context(), query)
	if errors.Is(err, music.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "artist not found")
		return
	}
	if err != nil {
		app.logger().WithError(err).Error("resolve failed")
		respondJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// SuggestJSON returns autocomplete entries for the "q" parameter.
func (app *Application) SuggestJSON(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, app.Suggester.Suggestions(r.Context(), r.URL.Query().Get("q")))
}

// ArtistsJSON returns the discovery grid sorted by the "order" parameter.
func (app *Application) ArtistsJSON(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("order")
	if order != "" && order != music.OrderAZ && order != music.OrderPopularity {
		respondJSONError(w, http.StatusBadRequest, "order must be az or popularity")
		return
	}
	respondJSON(w, http.StatusOK, app.Browser.Discover(r.Context(), order))
}

// GenresJSON lists the browsable genres.
func (app *Application) GenresJSON(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, app.Browser.Genres())
}

// GenreJSON lists the top artists of the genre named in the path.
func (app *Application) GenreJSON(w http.ResponseWriter, r *http.Request) {
	genre := strings.TrimSpace(r.PathValue("name"))
	if genre == "" {
		respondJSONError(w, http.StatusBadRequest, "genre is required")
		return
	}
	respondJSON(w, http.StatusOK, app.Browser.GenreCollection(r.Context(), genre))
}

// OfflineJSON previews the offline profile for "name". It only exists in
// offline mode.
func (app *Application) OfflineJSON(w http.ResponseWriter, r *http.Request) {
	if !app.OfflineMode {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	respondJSON(w, http.StatusOK, music.OfflineProfile(name))
}
