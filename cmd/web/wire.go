package main

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vsoeiu/LegatumM/pkg/catalog"
	"github.com/vsoeiu/LegatumM/pkg/config"
	"github.com/vsoeiu/LegatumM/pkg/db"
	"github.com/vsoeiu/LegatumM/pkg/lastfm"
	"github.com/vsoeiu/LegatumM/pkg/memo"
	"github.com/vsoeiu/LegatumM/pkg/music"
	"github.com/vsoeiu/LegatumM/pkg/spotify"
	"github.com/vsoeiu/LegatumM/pkg/transport"
	"github.com/vsoeiu/LegatumM/pkg/wikipedia"
	"github.com/vsoeiu/LegatumM/pkg/youtube"
)

// engine bundles the wired resolution pipeline.
type engine struct {
	resolver *music.Resolver
	browser  *music.Browser
	spotify  *spotify.Client
	close    func() error
}

// buildEngine wires every provider client, the memo cache and the engine
// from cfg. httpClient may be nil.
func buildEngine(cfg *config.Config, httpClient *http.Client, logger logrus.FieldLogger) (*engine, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	opts := transport.Options{
		Timeout:          cfg.HTTP.Timeout,
		QuickTimeout:     cfg.HTTP.QuickTimeout,
		MaxRetries:       uint64(cfg.HTTP.MaxRetries),
		RetryDelay:       cfg.HTTP.RetryDelay,
		BreakerThreshold: cfg.HTTP.BreakerThreshold,
		BreakerCooldown:  cfg.HTTP.BreakerCooldown,
	}
	upstream := func(provider string) *transport.Client {
		return transport.New(provider, httpClient, opts, logger)
	}

	spotifyHTTP := upstream("spotify")
	tokens := spotify.NewTokenManager(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.TokenURL, spotifyHTTP.HTTP(), cfg.HTTP.Timeout, logger)
	primary := spotify.NewClient(spotifyHTTP, tokens, cfg.Spotify.APIURL, cfg.Spotify.Market, logger)
	secondary := lastfm.NewClient(upstream("lastfm"), cfg.LastFM.APIKey, cfg.LastFM.APIURL, cfg.LastFM.Lang, primary, logger)
	videos := youtube.NewClient(upstream("youtube"), cfg.YouTube.APIKey, cfg.YouTube.SearchURL, logger)
	bios := wikipedia.NewClient(upstream("wikipedia"), cfg.Wikipedia.APIURL, cfg.Wikipedia.Lang, cfg.Wikipedia.Sentences, logger)

	memoOpts := []memo.Option{memo.WithLogger(logger)}
	closeFn := func() error { return nil }
	if cfg.Cache.Path != "" {
		database, err := db.New(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("opening cache database: %w", err)
		}
		memoOpts = append(memoOpts, memo.WithBacking(database))
		closeFn = database.Close
	}
	store, err := memo.New[music.Resolution](cfg.Cache.TTL, cfg.Cache.Size, memoOpts...)
	if err != nil {
		closeFn()
		return nil, err
	}

	return &engine{
		resolver: music.NewResolver(primary, secondary, videos, bios, store, logger),
		browser:  music.NewBrowser(primary, secondary, catalog.BrowseData(), logger),
		spotify:  primary,
		close:    closeFn,
	}, nil
}
