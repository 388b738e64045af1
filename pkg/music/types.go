// Package music defines the provider-neutral artist model and the resolution
// engine that reconciles the catalog, metadata and video sources into one
// profile. Provider packages (spotify, lastfm, youtube, wikipedia) project
// their payloads into these types; the handlers package renders them.
//
// Values are built through the New* constructors, which enforce the size
// limits and the never-empty display image, and are not mutated afterwards.
package music

// PlaceholderImage is shown whenever no source supplies a usable image.
const PlaceholderImage = "https://cdn-icons-png.flaticon.com/512/148/148841.png"

// Limits applied by the constructors.
const (
	MaxGenres = 3
	MaxTracks = 5
	MaxAlbums = 10
	MaxVideos = 8
)

// NeutralPopularity is used when a source does not report popularity.
const NeutralPopularity = 50

// Source tags where a ResolvedArtist came from.
type Source string

// Known sources.
const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceOffline   Source = "offline"
)

// Image is a single image descriptor. Width and Height are zero when the
// source does not report them.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Track is a projection of a catalog track.
type Track struct {
	Name         string            `json:"name"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
	VideoID      string            `json:"video_id,omitempty"`
}

// Album is a projection of a catalog album. ReleaseDate keeps the provider's
// own format.
type Album struct {
	Name        string  `json:"name"`
	Images      []Image `json:"images"`
	ReleaseDate string  `json:"release_date,omitempty"`
}

// ArtistProfile is the canonical metadata of a resolved artist.
type ArtistProfile struct {
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Image      string   `json:"image"`
	Popularity int      `json:"popularity"`
	// Followers is a string because some sources only report "N/A".
	Followers string `json:"followers"`
}

// NewArtistProfile builds a profile, keeping at most MaxGenres genres and
// substituting the placeholder for an empty image.
func NewArtistProfile(name string, genres []string, image string, popularity int, followers string) ArtistProfile {
	if len(genres) > MaxGenres {
		genres = genres[:MaxGenres]
	}
	if image == "" {
		image = PlaceholderImage
	}
	return ArtistProfile{
		Name:       name,
		Genres:     append([]string{}, genres...),
		Image:      image,
		Popularity: popularity,
		Followers:  followers,
	}
}

// Video describes one video hit.
type Video struct {
	Title     string `json:"title"`
	VideoID   string `json:"video_id"`
	Thumbnail string `json:"thumbnail"`
}

// ResolvedArtist is the unified result of a resolution.
type ResolvedArtist struct {
	Profile  ArtistProfile `json:"profile"`
	Tracks   []Track       `json:"tracks"`
	Albums   []Album       `json:"albums"`
	Source   Source        `json:"source"`
	Degraded bool          `json:"degraded"`
	Videos   []Video       `json:"videos"`
}

// NewResolvedArtist assembles a result from a profile and its catalog data.
// Degraded is derived from the source so it can never disagree with it.
func NewResolvedArtist(profile ArtistProfile, tracks []Track, albums []Album, source Source) ResolvedArtist {
	if len(tracks) > MaxTracks {
		tracks = tracks[:MaxTracks]
	}
	if len(albums) > MaxAlbums {
		albums = albums[:MaxAlbums]
	}
	return ResolvedArtist{
		Profile:  profile,
		Tracks:   append([]Track{}, tracks...),
		Albums:   append([]Album{}, albums...),
		Source:   source,
		Degraded: source != SourcePrimary,
		Videos:   []Video{},
	}
}

// WithVideos returns a copy of r carrying at most MaxVideos videos.
func (r ResolvedArtist) WithVideos(videos []Video) ResolvedArtist {
	if len(videos) > MaxVideos {
		videos = videos[:MaxVideos]
	}
	r.Videos = append([]Video{}, videos...)
	return r
}

// Resolution is what the engine returns and memoizes: the artist plus the
// best-effort enrichment.
type Resolution struct {
	Artist      ResolvedArtist `json:"artist"`
	Biography   string         `json:"biography"`
	LeadVideoID string         `json:"lead_video_id,omitempty"`
}

// ArtistSummary is the single-result lookup used for image and popularity
// enrichment.
type ArtistSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	Popularity int    `json:"popularity"`
}

// SuggestionKind tells whether an autocomplete entry names an artist or a
// track.
type SuggestionKind string

// Suggestion kinds.
const (
	SuggestArtist SuggestionKind = "artist"
	SuggestTrack  SuggestionKind = "track"
)

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Kind  SuggestionKind `json:"kind"`
	Label string         `json:"label"`
}

// TagArtist is an entry of a secondary-source genre listing.
type TagArtist struct {
	Name      string
	Listeners int
}

// Card is a browse-view tile.
type Card struct {
	Name       string `json:"name"`
	Image      string `json:"image"`
	Popularity int    `json:"popularity"`
}
