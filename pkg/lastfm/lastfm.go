// Package lastfm is the secondary metadata source. It answers artist lookups
// when the primary catalog has no match and lists the top artists of a genre
// tag for the browse views.
//
// Last.fm no longer serves real artist pictures, so an artist found here gets
// its image from the primary catalog's quick lookup whenever the one Last.fm
// returns is missing or a placeholder.
package lastfm

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vsoeiu/LegatumM/pkg/metrics"
	"github.com/vsoeiu/LegatumM/pkg/music"
	"github.com/vsoeiu/LegatumM/pkg/transport"
)

// DefaultBaseURL is the Last.fm 2.0 API root.
const DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// DefaultLang asks Last.fm for Spanish biographies and tags.
const DefaultLang = "es"

// starPlaceholder is the image hash Last.fm serves for every artist since it
// dropped artist pictures.
const starPlaceholder = "2a96cbd8b46e442fc41c2b86b821562f"

// Client queries the Last.fm API.
type Client struct {
	http    *transport.Client
	apiKey  string
	baseURL string
	lang    string
	rescue  music.ArtistLookup
	logger  logrus.FieldLogger
}

var (
	_ music.ArtistFinder = (*Client)(nil)
	_ music.TagLister    = (*Client)(nil)
)

// NewClient returns a Client. rescue supplies replacement images and may be
// nil to disable the rescue.
func NewClient(t *transport.Client, apiKey, baseURL, lang string, rescue music.ArtistLookup, logger logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if lang == "" {
		lang = DefaultLang
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		http:    t,
		apiKey:  apiKey,
		baseURL: baseURL,
		lang:    lang,
		rescue:  rescue,
		logger:  logger.WithField("component", "lastfm"),
	}
}

type image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

// count decodes Last.fm numbers, which arrive as strings or numbers.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("lastfm: bad count %s: %w", b, err)
	}
	*c = count(n)
	return nil
}

type artistInfo struct {
	Artist *struct {
		Name  string  `json:"name"`
		Image []image `json:"image"`
	} `json:"artist"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

type topArtists struct {
	TopArtists *struct {
		Artist []struct {
			Name      string `json:"name"`
			Listeners count  `json:"listeners"`
		} `json:"artist"`
	} `json:"topartists"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// Find looks the query up with artist.getinfo. The result is always tagged
// secondary: no genres, neutral popularity, followers "N/A" and no tracks or
// albums.
func (c *Client) Find(ctx context.Context, query string) (music.ResolvedArtist, error) {
	var res artistInfo
	err := c.call(ctx, url.Values{
		"method": {"artist.getinfo"},
		"artist": {query},
		"lang":   {c.lang},
	}, &res)
	if err != nil {
		return music.ResolvedArtist{}, fmt.Errorf("lastfm: %w: %w", music.ErrNotFound, err)
	}
	if res.Artist == nil || res.Artist.Name == "" {
		return music.ResolvedArtist{}, fmt.Errorf("lastfm: no artist for %q (%s): %w", query, res.Message, music.ErrNotFound)
	}

	name := res.Artist.Name
	img := music.SelectImage(toImages(res.Artist.Image))
	if music.IsPlaceholder(img) || strings.Contains(img, starPlaceholder) {
		img = c.rescueImage(ctx, name)
	}

	profile := music.NewArtistProfile(name, nil, img, music.NeutralPopularity, "N/A")
	return music.NewResolvedArtist(profile, nil, nil, music.SourceSecondary), nil
}

// rescueImage asks the primary catalog for a picture of name. The
// placeholder is kept when the lookup fails or has no real image.
func (c *Client) rescueImage(ctx context.Context, name string) string {
	if c.rescue == nil {
		return music.PlaceholderImage
	}
	log := c.logger.WithField("artist", name)
	summary, err := c.rescue.QuickLookup(ctx, name)
	switch {
	case err != nil:
		metrics.ImageRescues.WithLabelValues("failed").Inc()
		log.WithError(err).Debug("image rescue failed")
		return music.PlaceholderImage
	case music.IsPlaceholder(summary.Image):
		metrics.ImageRescues.WithLabelValues("placeholder").Inc()
		return music.PlaceholderImage
	}
	metrics.ImageRescues.WithLabelValues("rescued").Inc()
	log.Info("image rescued from primary catalog")
	return summary.Image
}

// TopArtistsForTag lists up to limit artists for tag via tag.gettopartists.
func (c *Client) TopArtistsForTag(ctx context.Context, tag string, limit int) ([]music.TagArtist, error) {
	var res topArtists
	err := c.call(ctx, url.Values{
		"method": {"tag.gettopartists"},
		"tag":    {tag},
		"limit":  {strconv.Itoa(limit)},
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.TopArtists == nil {
		return nil, fmt.Errorf("lastfm: tag %q: %s", tag, res.Message)
	}
	out := make([]music.TagArtist, 0, len(res.TopArtists.Artist))
	for _, a := range res.TopArtists.Artist {
		if len(out) == limit {
			break
		}
		out = append(out, music.TagArtist{Name: a.Name, Listeners: int(a.Listeners)})
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, params url.Values, dst any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	return c.http.Fetch(ctx, transport.Request{URL: c.baseURL, Query: params}, dst)
}

func toImages(in []image) []music.Image {
	out := make([]music.Image, 0, len(in))
	for _, img := range in {
		out = append(out, music.Image{URL: img.URL})
	}
	return out
}
