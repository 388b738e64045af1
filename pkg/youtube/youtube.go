// Package youtube finds videos through the YouTube Data API search endpoint:
// the single best video for a query and a short mix of official music videos
// for an artist. An API key must be provided when constructing the client.
//
// Requests go through the shared transport.Client, so tests substitute the
// underlying http.Client.
package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/vsoeiu/LegatumM/pkg/music"
	"github.com/vsoeiu/LegatumM/pkg/transport"
)

// DefaultSearchURL is the Data API v3 search endpoint.
const DefaultSearchURL = "https://www.googleapis.com/youtube/v3/search"

// musicCategory is the YouTube category id for Music.
const musicCategory = "10"

// Client provides access to the YouTube Data API.
type Client struct {
	http      *transport.Client
	key       string
	searchURL string
	logger    logrus.FieldLogger
}

// ensure Client implements the music.VideoSource interface.
var _ music.VideoSource = (*Client)(nil)

// NewClient returns a Client using key. An empty searchURL uses
// DefaultSearchURL.
func NewClient(t *transport.Client, key, searchURL string, logger logrus.FieldLogger) *Client {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{http: t, key: key, searchURL: searchURL, logger: logger.WithField("component", "youtube")}
}

type thumbnail struct {
	URL string `json:"url"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				Default thumbnail `json:"default"`
				Medium  thumbnail `json:"medium"`
				High    thumbnail `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// BestVideo returns the id of the top video hit for query.
func (c *Client) BestVideo(ctx context.Context, query string) (string, error) {
	res, err := c.search(ctx, url.Values{"q": {query}, "maxResults": {"1"}})
	if err != nil {
		return "", err
	}
	for _, item := range res.Items {
		if item.ID.VideoID != "" {
			return item.ID.VideoID, nil
		}
	}
	return "", fmt.Errorf("youtube: no video for %q: %w", query, music.ErrNotFound)
}

// ArtistMix searches "<artist> official music video" in the Music category
// and keeps up to music.MaxVideos hits. A failed search yields an empty list
// with the cause in Err.
func (c *Client) ArtistMix(ctx context.Context, artist string) music.Outcome[[]music.Video] {
	res, err := c.search(ctx, url.Values{
		"q":               {artist + " official music video"},
		"videoCategoryId": {musicCategory},
		"maxResults":      {strconv.Itoa(music.MaxVideos)},
	})
	if err != nil {
		return music.Failed([]music.Video{}, err)
	}
	videos := make([]music.Video, 0, len(res.Items))
	for _, item := range res.Items {
		if item.ID.VideoID == "" || len(videos) == music.MaxVideos {
			continue
		}
		th := item.Snippet.Thumbnails
		thumb := th.High.URL
		if thumb == "" {
			thumb = th.Medium.URL
		}
		if thumb == "" {
			thumb = th.Default.URL
		}
		videos = append(videos, music.Video{
			Title:     item.Snippet.Title,
			VideoID:   item.ID.VideoID,
			Thumbnail: thumb,
		})
	}
	return music.Succeeded(videos)
}

func (c *Client) search(ctx context.Context, params url.Values) (searchResponse, error) {
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("key", c.key)
	var res searchResponse
	err := c.http.Fetch(ctx, transport.Request{URL: c.searchURL, Query: params}, &res)
	return res, err
}
