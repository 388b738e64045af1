package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsoeiu/LegatumM/pkg/config"
	"github.com/vsoeiu/LegatumM/pkg/music"
)

func TestRootCommandDeclaresEveryKey(t *testing.T) {
	cmd := newRootCmd(viper.New())
	for key := range config.Defaults() {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(key), key)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["resolve"])
}

func TestFlagsOverrideDefaults(t *testing.T) {
	v := viper.New()
	cmd := newRootCmd(v)
	require.NoError(t, cmd.PersistentFlags().Parse([]string{"--spotify-market=AR", "--http-max-retries=4", "--offline-mode=false"}))

	cfg, _, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "AR", cfg.Spotify.Market)
	assert.Equal(t, 4, cfg.HTTP.MaxRetries)
	assert.False(t, cfg.OfflineMode)
}

func TestResolveCommandPrintsJSON(t *testing.T) {
	fake := httptest.NewServer((&upstream{}).handler(t))
	defer fake.Close()

	var out bytes.Buffer
	cmd := newRootCmd(viper.New())
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"resolve",
		"--config", filepath.Join(t.TempDir(), "missing.env"),
		"--spotify-client-id", "id",
		"--spotify-client-secret", "secret",
		"--spotify-token-url", fake.URL + "/token",
		"--spotify-api-url", fake.URL + "/v1",
		"--youtube-search-url", fake.URL + "/youtube/search",
		"--wikipedia-api-url", fake.URL + "/wiki",
		"--log-level", "error",
		"Queen",
	})
	require.NoError(t, cmd.Execute())

	var res music.Resolution
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "Queen", res.Artist.Profile.Name)
	assert.Equal(t, music.SourcePrimary, res.Artist.Source)
}

func TestResolveCommandRequiresQuery(t *testing.T) {
	cmd := newRootCmd(viper.New())
	cmd.SetArgs([]string{"resolve"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestInvalidConfigurationIsRejected(t *testing.T) {
	v := viper.New()
	cmd := newRootCmd(v)
	require.NoError(t, cmd.PersistentFlags().Parse([]string{"--cache-size=0"}))
	_, _, err := loadConfig(v)
	assert.Error(t, err)
}
