// Package spotify is the primary catalog client. It resolves free-text
// queries into full artist profiles (top tracks and albums included), serves
// the quick single-result lookup used to enrich names coming from other
// sources, and feeds autocomplete.
//
// Calls go through the shared transport.Client so timeouts and retries match
// every other provider; payloads are decoded into the types of the
// github.com/zmb3/spotify library. Bearer tokens come from a TokenSource,
// normally a *TokenManager.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	libspotify "github.com/zmb3/spotify"
	"golang.org/x/sync/errgroup"

	"github.com/vsoeiu/LegatumM/pkg/music"
	"github.com/vsoeiu/LegatumM/pkg/transport"
)

// DefaultBaseURL is the Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// DefaultMarket scopes top-track lookups.
const DefaultMarket = "MX"

const maxSuggestions = 6

// TokenSource supplies bearer tokens. It allows the TokenManager to be
// replaced in tests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the Spotify Web API.
type Client struct {
	http    *transport.Client
	tokens  TokenSource
	baseURL string
	market  string
	logger  logrus.FieldLogger
}

// Compile-time checks against the interfaces the engine consumes.
var (
	_ music.ArtistFinder = (*Client)(nil)
	_ music.ArtistLookup = (*Client)(nil)
)

// NewClient returns a Client. Empty baseURL and market use the defaults.
func NewClient(t *transport.Client, tokens TokenSource, baseURL, market string, logger logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if market == "" {
		market = DefaultMarket
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		http:    t,
		tokens:  tokens,
		baseURL: strings.TrimRight(baseURL, "/"),
		market:  market,
		logger:  logger.WithField("component", "spotify"),
	}
}

// QuickLookup returns the single best artist match for name.
func (c *Client) QuickLookup(ctx context.Context, name string) (music.ArtistSummary, error) {
	a, err := c.searchArtist(ctx, name, true)
	if err != nil {
		return music.ArtistSummary{}, err
	}
	return music.ArtistSummary{
		ID:         string(a.ID),
		Name:       a.Name,
		Image:      music.SelectImage(toImages(a.Images)),
		Popularity: a.Popularity,
	}, nil
}

// Find resolves query through the strategy cascade and returns the artist
// with up to five top tracks and ten albums. Failed track or album fetches
// leave those lists empty. A failed credential exchange yields an error that
// wraps both music.ErrNotFound and *AuthError so the caller falls through to
// the next source.
func (c *Client) Find(ctx context.Context, query string) (music.ResolvedArtist, error) {
	log := c.logger.WithField("query", query)
	if _, err := c.tokens.Token(ctx); err != nil {
		return music.ResolvedArtist{}, fmt.Errorf("%w: %w", music.ErrNotFound, err)
	}

	q := ClassifyQuery(query)
	var (
		artist libspotify.FullArtist
		found  bool
	)
	for _, s := range c.strategies(q) {
		a, err := s.run(ctx, q)
		if err == nil {
			artist, found = a, true
			log.WithField("strategy", s.name).Debug("artist identity resolved")
			break
		}
		if isAuth(err) {
			return music.ResolvedArtist{}, fmt.Errorf("%w: %w", music.ErrNotFound, err)
		}
		log.WithFields(logrus.Fields{"strategy": s.name, "error": err}).Debug("strategy missed")
	}
	if !found {
		return music.ResolvedArtist{}, fmt.Errorf("spotify: no match for %q: %w", query, music.ErrNotFound)
	}

	tracks, albums := c.catalog(ctx, string(artist.ID))
	for field, err := range map[string]error{"tracks": tracks.Err, "albums": albums.Err} {
		if err != nil {
			log.WithFields(logrus.Fields{"field": field, "error": err}).Warn("catalog sub-fetch failed")
		}
	}

	profile := music.NewArtistProfile(
		artist.Name,
		artist.Genres,
		music.SelectImage(toImages(artist.Images)),
		artist.Popularity,
		strconv.FormatUint(uint64(artist.Followers.Count), 10),
	)
	return music.NewResolvedArtist(profile, tracks.Value, albums.Value, music.SourcePrimary), nil
}

// catalog fetches top tracks and albums concurrently. Failures degrade to
// empty lists.
func (c *Client) catalog(ctx context.Context, id string) (music.Outcome[[]music.Track], music.Outcome[[]music.Album]) {
	tracks := music.Succeeded([]music.Track{})
	albums := music.Succeeded([]music.Album{})

	var g errgroup.Group
	g.Go(func() error {
		ts, err := c.topTracks(ctx, id)
		if err != nil {
			tracks = music.Failed([]music.Track{}, err)
			return nil
		}
		out := make([]music.Track, 0, min(len(ts), music.MaxTracks))
		for _, t := range ts {
			if len(out) == music.MaxTracks {
				break
			}
			out = append(out, music.Track{Name: t.Name, ExternalURLs: t.ExternalURLs})
		}
		tracks = music.Succeeded(out)
		return nil
	})
	g.Go(func() error {
		as, err := c.albums(ctx, id)
		if err != nil {
			albums = music.Failed([]music.Album{}, err)
			return nil
		}
		out := make([]music.Album, 0, len(as))
		for _, a := range as {
			out = append(out, music.Album{Name: a.Name, Images: toImages(a.Images), ReleaseDate: a.ReleaseDate})
		}
		albums = music.Succeeded(out)
		return nil
	})
	_ = g.Wait()
	return tracks, albums
}

// Suggestions returns up to six autocomplete entries for partial: artists by
// name and tracks as "Track - Artist". Any failure, auth included, yields an
// empty list.
func (c *Client) Suggestions(ctx context.Context, partial string) []music.Suggestion {
	partial = strings.TrimSpace(partial)
	out := []music.Suggestion{}
	if partial == "" {
		return out
	}

	var res libspotify.SearchResult
	params := url.Values{"q": {partial}, "type": {"artist,track"}, "limit": {"5"}}
	if err := c.get(ctx, "/search", params, true, &res); err != nil {
		c.logger.WithFields(logrus.Fields{"partial": partial, "error": err}).Debug("suggestions unavailable")
		return out
	}

	seen := make(map[string]struct{})
	add := func(kind music.SuggestionKind, label string) {
		if label == "" || len(out) == maxSuggestions {
			return
		}
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		out = append(out, music.Suggestion{Kind: kind, Label: label})
	}
	if res.Artists != nil {
		for _, a := range res.Artists.Artists {
			add(music.SuggestArtist, a.Name)
		}
	}
	if res.Tracks != nil {
		for _, t := range res.Tracks.Tracks {
			label := t.Name
			if len(t.Artists) > 0 {
				label += CompositeSeparator + t.Artists[0].Name
			}
			add(music.SuggestTrack, label)
		}
	}
	return out
}

func (c *Client) searchArtist(ctx context.Context, name string, quick bool) (libspotify.FullArtist, error) {
	var res libspotify.SearchResult
	params := url.Values{"q": {name}, "type": {"artist"}, "limit": {"1"}}
	if err := c.get(ctx, "/search", params, quick, &res); err != nil {
		return libspotify.FullArtist{}, err
	}
	if res.Artists == nil || len(res.Artists.Artists) == 0 {
		return libspotify.FullArtist{}, fmt.Errorf("spotify: no artist for %q: %w", name, music.ErrNotFound)
	}
	return res.Artists.Artists[0], nil
}

func (c *Client) searchTrack(ctx context.Context, query string) (libspotify.FullTrack, error) {
	var res libspotify.SearchResult
	params := url.Values{"q": {query}, "type": {"track"}, "limit": {"1"}}
	if err := c.get(ctx, "/search", params, false, &res); err != nil {
		return libspotify.FullTrack{}, err
	}
	if res.Tracks == nil || len(res.Tracks.Tracks) == 0 {
		return libspotify.FullTrack{}, fmt.Errorf("spotify: no track for %q: %w", query, music.ErrNotFound)
	}
	return res.Tracks.Tracks[0], nil
}

func (c *Client) artistByID(ctx context.Context, id string) (libspotify.FullArtist, error) {
	var a libspotify.FullArtist
	if err := c.get(ctx, "/artists/"+url.PathEscape(id), nil, true, &a); err != nil {
		return libspotify.FullArtist{}, err
	}
	return a, nil
}

func (c *Client) topTracks(ctx context.Context, id string) ([]libspotify.FullTrack, error) {
	var res struct {
		Tracks []libspotify.FullTrack `json:"tracks"`
	}
	params := url.Values{"market": {c.market}}
	if err := c.get(ctx, "/artists/"+url.PathEscape(id)+"/top-tracks", params, false, &res); err != nil {
		return nil, err
	}
	return res.Tracks, nil
}

func (c *Client) albums(ctx context.Context, id string) ([]libspotify.SimpleAlbum, error) {
	var page libspotify.SimpleAlbumPage
	params := url.Values{"include_groups": {"album"}, "limit": {strconv.Itoa(music.MaxAlbums)}}
	if err := c.get(ctx, "/artists/"+url.PathEscape(id)+"/albums", params, false, &page); err != nil {
		return nil, err
	}
	return page.Albums, nil
}

// get performs an authenticated GET against the API root. A 401 drops the
// cached token and is reported as *AuthError.
func (c *Client) get(ctx context.Context, path string, params url.Values, quick bool, dst any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	err = c.http.Fetch(ctx, transport.Request{
		URL:    c.baseURL + path,
		Query:  params,
		Header: http.Header{"Authorization": {"Bearer " + token}},
		Quick:  quick,
	}, dst)
	var se *transport.StatusError
	if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
		if inv, ok := c.tokens.(interface{ Invalidate() }); ok {
			inv.Invalidate()
		}
		return &AuthError{Err: err}
	}
	return err
}

func toImages(in []libspotify.Image) []music.Image {
	out := make([]music.Image, 0, len(in))
	for _, img := range in {
		out = append(out, music.Image{URL: img.URL, Width: int(img.Width), Height: int(img.Height)})
	}
	return out
}

func isAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
