package music

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Browse defaults.
const (
	DiscoverSample   = 20
	GenreListingSize = 24
	lookupFanout     = 4
)

// Sort orders accepted by Discover.
const (
	OrderAZ         = "az"
	OrderPopularity = "popularity"
)

// BrowseData is the static material behind the browse views.
type BrowseData struct {
	// Pool is the set of artist names sampled by Discover.
	Pool []string
	// Genres is the display list of genres.
	Genres []string
	// Tags maps a display genre to its secondary-source tag.
	Tags map[string]string
}

// Browser serves the discovery grid and genre collections. Both views never
// fail: lookups that go wrong keep neutral defaults and an empty view falls
// back to OfflineGrid.
type Browser struct {
	lookup  ArtistLookup
	tags    TagLister
	data    BrowseData
	shuffle func(n int) []int
	logger  logrus.FieldLogger
}

// NewBrowser returns a Browser. tags may be nil, in which case every genre
// collection is the offline grid.
func NewBrowser(lookup ArtistLookup, tags TagLister, data BrowseData, logger logrus.FieldLogger) *Browser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Browser{
		lookup:  lookup,
		tags:    tags,
		data:    data,
		shuffle: rand.Perm,
		logger:  logger.WithField("component", "browser"),
	}
}

// Genres returns the display genre list.
func (b *Browser) Genres() []string {
	return append([]string{}, b.data.Genres...)
}

// TagFor maps a display genre to its tag; unknown genres use their lowercase
// form.
func (b *Browser) TagFor(genre string) string {
	if tag, ok := b.data.Tags[genre]; ok {
		return tag
	}
	return strings.ToLower(genre)
}

// Discover samples the pool and decorates each name with the primary
// source's image and popularity, sorted by order when it is OrderAZ or
// OrderPopularity.
func (b *Browser) Discover(ctx context.Context, order string) []Card {
	n := min(DiscoverSample, len(b.data.Pool))
	perm := b.shuffle(len(b.data.Pool))
	names := make([]string, 0, n)
	for _, i := range perm[:n] {
		names = append(names, b.data.Pool[i])
	}

	cards := b.decorate(ctx, names, func(int) int { return NeutralPopularity })
	if len(cards) == 0 {
		return OfflineGrid()
	}

	switch order {
	case OrderAZ:
		sort.SliceStable(cards, func(i, j int) bool { return cards[i].Name < cards[j].Name })
	case OrderPopularity:
		sort.SliceStable(cards, func(i, j int) bool { return cards[i].Popularity > cards[j].Popularity })
	}
	return cards
}

// GenreCollection lists the top artists of genre on the secondary source and
// decorates them through the primary source, estimating popularity from
// listener counts when the lookup fails.
func (b *Browser) GenreCollection(ctx context.Context, genre string) []Card {
	if b.tags == nil {
		return OfflineGrid()
	}
	tag := b.TagFor(genre)
	listing, err := b.tags.TopArtistsForTag(ctx, tag, GenreListingSize)
	if err != nil {
		b.logger.WithFields(logrus.Fields{"tag": tag, "error": err}).Warn("genre listing failed")
	}

	names := make([]string, len(listing))
	for i, a := range listing {
		names[i] = a.Name
	}
	cards := b.decorate(ctx, names, func(i int) int { return EstimatePopularity(listing[i].Listeners) })
	if len(cards) == 0 {
		return OfflineGrid()
	}
	return cards
}

// decorate looks up every name with bounded parallelism, preserving order.
// fallback supplies the popularity of entry i when its lookup fails.
func (b *Browser) decorate(ctx context.Context, names []string, fallback func(i int) int) []Card {
	cards := make([]Card, len(names))
	var g errgroup.Group
	g.SetLimit(lookupFanout)
	for i, name := range names {
		g.Go(func() error {
			card := Card{Name: name, Image: PlaceholderImage, Popularity: fallback(i)}
			if b.lookup != nil {
				summary, err := b.lookup.QuickLookup(ctx, name)
				if err == nil {
					card.Image = summary.Image
					if IsPlaceholder(card.Image) {
						card.Image = PlaceholderImage
					}
					card.Popularity = summary.Popularity
				} else {
					b.logger.WithFields(logrus.Fields{"artist": name, "error": err}).Debug("quick lookup failed")
				}
			}
			cards[i] = card
			return nil
		})
	}
	_ = g.Wait()
	return cards
}

// EstimatePopularity derives a coarse 0-100 score from a listener count:
// 25 points of floor plus one point per 20,000 listeners, capped at 100.
func EstimatePopularity(listeners int) int {
	return min(100, int(float64(listeners)/2_000_000*100)+25)
}
