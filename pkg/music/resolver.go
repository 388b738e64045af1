package music

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vsoeiu/LegatumM/pkg/metrics"
)

// Resolver turns a free-text query into a Resolution. It consults the memo
// store first, then the primary source, then the secondary source, and
// finally attaches videos, a biography and a lead video on a best-effort
// basis. Only two outcomes leave Resolve: a Resolution or ErrNotFound.
//
// Concurrent misses on the same key may both reach the upstream sources; the
// last Save wins, which is harmless because both computed the same value.
type Resolver struct {
	primary   ArtistFinder
	secondary ArtistFinder
	videos    VideoSource
	bios      BiographySource
	store     Store
	logger    logrus.FieldLogger
}

// NewResolver wires the engine. secondary, videos and bios may be nil, in
// which case that fallback or enrichment step is skipped.
func NewResolver(primary, secondary ArtistFinder, videos VideoSource, bios BiographySource, store Store, logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{
		primary:   primary,
		secondary: secondary,
		videos:    videos,
		bios:      bios,
		store:     store,
		logger:    logger.WithField("component", "resolver"),
	}
}

// Resolve returns the memoized or freshly resolved artist for query. Blank
// queries are rejected with ErrNotFound without touching any source.
func (r *Resolver) Resolve(ctx context.Context, query string) (Resolution, error) {
	key := CacheKey(query)
	log := r.logger.WithFields(logrus.Fields{"query": query, "key": key})

	if strings.TrimSpace(query) == "" {
		return Resolution{}, fmt.Errorf("empty query: %w", ErrNotFound)
	}

	if cached, ok := r.store.Lookup(ctx, key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		log.Debug("cache hit")
		return cached, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	start := time.Now()
	defer func() { metrics.ResolveDuration.Observe(time.Since(start).Seconds()) }()

	artist, err := r.find(ctx, query, log)
	if err != nil {
		metrics.Resolutions.WithLabelValues("not_found").Inc()
		log.Info("artist not found in any source")
		return Resolution{}, err
	}

	res := r.enrich(ctx, artist, log)
	r.store.Save(ctx, key, res)

	metrics.Resolutions.WithLabelValues(string(artist.Source)).Inc()
	log.WithFields(logrus.Fields{
		"source": artist.Source,
		"artist": artist.Profile.Name,
		"videos": len(res.Artist.Videos),
	}).Info("artist resolved")
	return res, nil
}

func (r *Resolver) find(ctx context.Context, query string, log logrus.FieldLogger) (ResolvedArtist, error) {
	artist, err := r.primary.Find(ctx, query)
	if err == nil {
		return artist, nil
	}
	log.WithError(err).Info("primary source has no match, falling back")

	if r.secondary != nil {
		artist, err = r.secondary.Find(ctx, query)
		if err == nil {
			return artist, nil
		}
		log.WithError(err).Info("secondary source has no match")
	}
	return ResolvedArtist{}, fmt.Errorf("resolving %q: %w", query, ErrNotFound)
}

// enrichment collects the three independent best-effort fetches.
type enrichment struct {
	videos Outcome[[]Video]
	bio    Outcome[string]
	lead   Outcome[string]
}

func (r *Resolver) enrich(ctx context.Context, artist ResolvedArtist, log logrus.FieldLogger) Resolution {
	name := artist.Profile.Name
	e := enrichment{
		videos: Succeeded([]Video{}),
		bio:    Succeeded(""),
		lead:   Succeeded(""),
	}

	var g errgroup.Group
	if r.videos != nil {
		g.Go(func() error {
			e.videos = r.videos.ArtistMix(ctx, name)
			return nil
		})
		g.Go(func() error {
			id, err := r.videos.BestVideo(ctx, name+" official video")
			if err != nil {
				e.lead = Failed("", err)
				return nil
			}
			e.lead = Succeeded(id)
			return nil
		})
	}
	if r.bios != nil {
		g.Go(func() error {
			bio, err := r.bios.Summary(ctx, name)
			if err != nil {
				e.bio = Failed("", err)
				return nil
			}
			e.bio = Succeeded(bio)
			return nil
		})
	}
	_ = g.Wait()

	for field, err := range map[string]error{
		"videos":     e.videos.Err,
		"biography":  e.bio.Err,
		"lead_video": e.lead.Err,
	} {
		if err != nil {
			log.WithFields(logrus.Fields{"field": field, "error": err}).Warn("enrichment degraded")
		}
	}

	return Resolution{
		Artist:      artist.WithVideos(e.videos.Value),
		Biography:   e.bio.Value,
		LeadVideoID: e.lead.Value,
	}
}
