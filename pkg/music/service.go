package music

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no source knows the requested artist. It is a
// negative result, not a failure, and is never retried.
var ErrNotFound = errors.New("artist not found")

// ArtistFinder resolves a free-text query into an artist. Implementations
// return an error wrapping ErrNotFound when they have no match.
type ArtistFinder interface {
	Find(ctx context.Context, query string) (ResolvedArtist, error)
}

// ArtistLookup performs the quick single-result lookup used for image and
// popularity enrichment of a name already known to be correct.
type ArtistLookup interface {
	QuickLookup(ctx context.Context, name string) (ArtistSummary, error)
}

// VideoSource finds videos for a query or an artist.
type VideoSource interface {
	BestVideo(ctx context.Context, query string) (string, error)
	// ArtistMix never fails outright: a failed search yields an empty
	// Value and the cause in Err.
	ArtistMix(ctx context.Context, artist string) Outcome[[]Video]
}

// BiographySource returns a short encyclopedia-style summary for a name.
type BiographySource interface {
	Summary(ctx context.Context, name string) (string, error)
}

// TagLister lists the top artists of a genre tag on the secondary source.
type TagLister interface {
	TopArtistsForTag(ctx context.Context, tag string, limit int) ([]TagArtist, error)
}

// Store memoizes resolutions by normalized key. Lookup only reports live
// entries; expiry is the store's concern.
type Store interface {
	Lookup(ctx context.Context, key string) (Resolution, bool)
	Save(ctx context.Context, key string, r Resolution)
}
