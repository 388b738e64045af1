// Package wikipedia fetches short artist biographies from the Wikipedia REST
// summary endpoint.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vsoeiu/LegatumM/pkg/music"
	"github.com/vsoeiu/LegatumM/pkg/transport"
)

// DefaultLang selects the Spanish Wikipedia.
const DefaultLang = "es"

// DefaultSentences is how many sentences a biography keeps.
const DefaultSentences = 4

// Client reads page summaries.
type Client struct {
	http      *transport.Client
	baseURL   string
	sentences int
	logger    logrus.FieldLogger
}

var _ music.BiographySource = (*Client)(nil)

// NewClient returns a Client. An empty baseURL targets the REST API of the
// lang edition; sentences <= 0 uses DefaultSentences.
func NewClient(t *transport.Client, baseURL, lang string, sentences int, logger logrus.FieldLogger) *Client {
	if lang == "" {
		lang = DefaultLang
	}
	if baseURL == "" {
		baseURL = "https://" + lang + ".wikipedia.org/api/rest_v1"
	}
	if sentences <= 0 {
		sentences = DefaultSentences
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		http:      t,
		baseURL:   strings.TrimRight(baseURL, "/"),
		sentences: sentences,
		logger:    logger.WithField("component", "wikipedia"),
	}
}

type summary struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// Summary returns the first sentences of the page titled name. Missing pages,
// disambiguation pages and empty extracts wrap music.ErrNotFound.
func (c *Client) Summary(ctx context.Context, name string) (string, error) {
	title := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if title == "" {
		return "", fmt.Errorf("wikipedia: empty title: %w", music.ErrNotFound)
	}

	var s summary
	err := c.http.Fetch(ctx, transport.Request{
		URL:   c.baseURL + "/page/summary/" + url.PathEscape(title),
		Quick: true,
	}, &s)
	var se *transport.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return "", fmt.Errorf("wikipedia: no page %q: %w", title, music.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	if s.Type == "disambiguation" {
		c.logger.WithField("title", title).Debug("disambiguation page skipped")
		return "", fmt.Errorf("wikipedia: %q is ambiguous: %w", title, music.ErrNotFound)
	}
	text := FirstSentences(s.Extract, c.sentences)
	if text == "" {
		return "", fmt.Errorf("wikipedia: empty extract for %q: %w", title, music.ErrNotFound)
	}
	return text, nil
}

// FirstSentences keeps the first n sentences of text. A sentence ends at '.',
// '!' or '?' followed by whitespace or the end of the text.
func FirstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 {
		return ""
	}
	count := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + 1
		if next < len(text) && text[next] != ' ' && text[next] != '\n' {
			continue
		}
		count++
		if count == n {
			return text[:next]
		}
	}
	return text
}
