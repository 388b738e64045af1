package music

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

type fakeFinder struct {
	artists map[string]ResolvedArtist
	err     error
	calls   atomic.Int32
}

func (f *fakeFinder) Find(_ context.Context, q string) (ResolvedArtist, error) {
	f.calls.Add(1)
	if f.err != nil {
		return ResolvedArtist{}, f.err
	}
	if a, ok := f.artists[q]; ok {
		return a, nil
	}
	return ResolvedArtist{}, fmt.Errorf("fake: %w", ErrNotFound)
}

type fakeVideos struct {
	mix   Outcome[[]Video]
	lead  string
	err   error
	query string
	mu    sync.Mutex
}

func (f *fakeVideos) BestVideo(_ context.Context, q string) (string, error) {
	f.mu.Lock()
	f.query = q
	f.mu.Unlock()
	return f.lead, f.err
}

func (f *fakeVideos) ArtistMix(context.Context, string) Outcome[[]Video] { return f.mix }

type fakeBios struct {
	bio string
	err error
}

func (f fakeBios) Summary(context.Context, string) (string, error) { return f.bio, f.err }

type mapStore struct {
	mu sync.Mutex
	m  map[string]Resolution
}

func newMapStore() *mapStore { return &mapStore{m: map[string]Resolution{}} }

func (s *mapStore) Lookup(_ context.Context, key string) (Resolution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.m[key]
	return r, ok
}

func (s *mapStore) Save(_ context.Context, key string, r Resolution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = r
}

func queen() ResolvedArtist {
	p := NewArtistProfile("Queen", []string{"rock"}, "https://img/queen.jpg", 88, "100")
	return NewResolvedArtist(p, []Track{{Name: "Bohemian Rhapsody"}}, nil, SourcePrimary)
}

func TestResolvePrimaryWithEnrichment(t *testing.T) {
	primary := &fakeFinder{artists: map[string]ResolvedArtist{"Queen": queen()}}
	secondary := &fakeFinder{}
	videos := &fakeVideos{mix: Succeeded([]Video{{VideoID: "v1"}}), lead: "lead"}
	store := newMapStore()
	r := NewResolver(primary, secondary, videos, fakeBios{bio: "Banda británica."}, store, quietLogger())

	got, err := r.Resolve(context.Background(), "Queen")
	require.NoError(t, err)
	assert.Equal(t, "Queen", got.Artist.Profile.Name)
	assert.Equal(t, SourcePrimary, got.Artist.Source)
	assert.Equal(t, "Banda británica.", got.Biography)
	assert.Equal(t, "lead", got.LeadVideoID)
	assert.Len(t, got.Artist.Videos, 1)
	assert.Equal(t, "Queen official video", videos.query)
	assert.Zero(t, secondary.calls.Load())

	_, ok := store.Lookup(context.Background(), "queen")
	assert.True(t, ok, "resolution should be memoized under the normalized key")
}

func TestResolveIsIdempotentWithinTTL(t *testing.T) {
	primary := &fakeFinder{artists: map[string]ResolvedArtist{"Queen": queen(), "QUEEN": queen()}}
	r := NewResolver(primary, nil, nil, nil, newMapStore(), quietLogger())

	first, err := r.Resolve(context.Background(), "Queen")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "QUEEN")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, primary.calls.Load(), "second call should be a cache hit")
}

func TestResolveFallsBackToSecondary(t *testing.T) {
	p := NewArtistProfile("Soda Stereo", nil, "", NeutralPopularity, "N/A")
	soda := NewResolvedArtist(p, nil, nil, SourceSecondary)
	primary := &fakeFinder{err: fmt.Errorf("auth: %w", ErrNotFound)}
	secondary := &fakeFinder{artists: map[string]ResolvedArtist{"soda stereo": soda}}
	r := NewResolver(primary, secondary, nil, nil, newMapStore(), quietLogger())

	got, err := r.Resolve(context.Background(), "soda stereo")
	require.NoError(t, err)
	assert.Equal(t, SourceSecondary, got.Artist.Source)
	assert.True(t, got.Artist.Degraded)
	assert.Equal(t, PlaceholderImage, got.Artist.Profile.Image)
}

func TestResolveNotFound(t *testing.T) {
	store := newMapStore()
	r := NewResolver(&fakeFinder{}, &fakeFinder{}, nil, nil, store, quietLogger())

	_, err := r.Resolve(context.Background(), "xyzzy-nonexistent-artist-qqq")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, store.m, "negative results are not memoized")
}

func TestResolveBlankQuery(t *testing.T) {
	primary := &fakeFinder{}
	r := NewResolver(primary, nil, nil, nil, newMapStore(), quietLogger())

	_, err := r.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, primary.calls.Load())
}

func TestResolveDegradedEnrichment(t *testing.T) {
	primary := &fakeFinder{artists: map[string]ResolvedArtist{"Queen": queen()}}
	videos := &fakeVideos{mix: Failed([]Video{}, errors.New("quota")), err: errors.New("quota")}
	r := NewResolver(primary, nil, videos, fakeBios{err: errors.New("timeout")}, newMapStore(), quietLogger())

	got, err := r.Resolve(context.Background(), "Queen")
	require.NoError(t, err)
	assert.NotNil(t, got.Artist.Videos)
	assert.Empty(t, got.Artist.Videos)
	assert.Empty(t, got.Biography)
	assert.Empty(t, got.LeadVideoID)
}

func TestResolveCapsVideos(t *testing.T) {
	mix := make([]Video, 12)
	primary := &fakeFinder{artists: map[string]ResolvedArtist{"Queen": queen()}}
	r := NewResolver(primary, nil, &fakeVideos{mix: Succeeded(mix)}, nil, newMapStore(), quietLogger())

	got, err := r.Resolve(context.Background(), "Queen")
	require.NoError(t, err)
	assert.Len(t, got.Artist.Videos, MaxVideos)
}
