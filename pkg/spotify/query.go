package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	libspotify "github.com/zmb3/spotify"

	"github.com/vsoeiu/LegatumM/pkg/music"
)

// CompositeSeparator splits autosuggest entries formatted "Track - Artist".
// Only the exact space-hyphen-space sequence counts; a bare hyphen does not.
const CompositeSeparator = " - "

// Query is a classified free-text query.
type Query struct {
	Raw string
	// Composite is true when Raw contains CompositeSeparator.
	Composite bool
	// Candidate is the text after the last separator, verbatim. It may be
	// empty when the query ends with the separator.
	Candidate string
}

// ClassifyQuery detects the composite "Track - Artist" form and extracts the
// artist candidate from the right-hand side of the last separator.
func ClassifyQuery(raw string) Query {
	q := Query{Raw: raw}
	idx := strings.LastIndex(raw, CompositeSeparator)
	if idx < 0 {
		return q
	}
	q.Composite = true
	q.Candidate = raw[idx+len(CompositeSeparator):]
	return q
}

// strategy is one step of the resolution cascade. It returns the resolved
// artist identity or an error wrapping music.ErrNotFound.
type strategy struct {
	name string
	run  func(ctx context.Context, q Query) (libspotify.FullArtist, error)
}

// strategies returns the ordered cascade for q. Composite queries try the
// candidate artist and then the raw string as a track; they never search the
// raw composite string as an artist, since those searches rarely succeed.
// Plain queries try an artist search and then a track search.
func (c *Client) strategies(q Query) []strategy {
	if q.Composite {
		return []strategy{
			{name: "candidate-artist", run: c.byCandidateArtist},
			{name: "track", run: c.byTrack},
		}
	}
	return []strategy{
		{name: "artist", run: c.byArtist},
		{name: "track", run: c.byTrack},
	}
}

func (c *Client) byCandidateArtist(ctx context.Context, q Query) (libspotify.FullArtist, error) {
	name := strings.TrimSpace(q.Candidate)
	if name == "" {
		return libspotify.FullArtist{}, fmt.Errorf("empty artist candidate: %w", music.ErrNotFound)
	}
	return c.searchArtist(ctx, name, false)
}

func (c *Client) byArtist(ctx context.Context, q Query) (libspotify.FullArtist, error) {
	return c.searchArtist(ctx, q.Raw, false)
}

// byTrack searches the raw query as a track and adopts the track's first
// artist. Track search does not embed full artist metadata, so the artist is
// fetched by id; if that lookup fails the bare id and name are kept.
func (c *Client) byTrack(ctx context.Context, q Query) (libspotify.FullArtist, error) {
	track, err := c.searchTrack(ctx, q.Raw)
	if err != nil {
		return libspotify.FullArtist{}, err
	}
	if len(track.Artists) == 0 {
		return libspotify.FullArtist{}, fmt.Errorf("track %q has no artist: %w", track.Name, music.ErrNotFound)
	}
	simple := track.Artists[0]
	full, err := c.artistByID(ctx, string(simple.ID))
	if err != nil {
		if isAuth(err) {
			return libspotify.FullArtist{}, err
		}
		c.logger.WithFields(logrus.Fields{"artist_id": simple.ID, "error": err}).Warn("artist profile lookup failed, keeping track artist")
		return libspotify.FullArtist{SimpleArtist: simple}, nil
	}
	return full, nil
}
