package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Priya8975/guildlog/internal/discord"
	"github.com/Priya8975/guildlog/internal/errdef"
	"github.com/Priya8975/guildlog/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFake(t *testing.T, mode string) (*fake, *httptest.Server) {
	t.Helper()
	f := &fake{
		mode:  mode,
		delay: time.Second,
		names: map[string]string{"42": "Test Guild"},
		log:   logging.Discard(),
	}
	srv := httptest.NewServer(f.routes())
	t.Cleanup(srv.Close)
	return f, srv
}

func TestParseNames(t *testing.T) {
	got := parseNames("42=Test Guild, 7 = Seven ,bad,=x,9=")

	assert.Equal(t, map[string]string{"42": "Test Guild", "7": "Seven"}, got)
	assert.Empty(t, parseNames(""))
}

func TestFake_ServesDiscordClient(t *testing.T) {
	f, srv := newFake(t, modeOK)
	c := discord.New(srv.URL+"/api", "tok")

	g, err := c.Guild(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Test Guild", g.Name)

	g, err = c.Guild(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Guild 5", g.Name)

	assert.Equal(t, int64(2), f.requests.Load())
}

func TestFake_RequiresBotAuth(t *testing.T) {
	_, srv := newFake(t, modeOK)

	_, err := discord.New(srv.URL+"/api", "tok", discord.WithAuthScheme("Bearer")).Guild(context.Background(), 42)

	assert.True(t, errdef.IsUpstream(err))
}

func TestFake_FailMode(t *testing.T) {
	_, srv := newFake(t, modeFail)

	_, err := discord.New(srv.URL+"/api", "tok").Guild(context.Background(), 42)

	var apiErr *discord.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
}

func TestFake_SlowModeTripsClientTimeout(t *testing.T) {
	_, srv := newFake(t, modeSlow)

	_, err := discord.New(srv.URL+"/api", "tok", discord.WithTimeout(50*time.Millisecond)).Guild(context.Background(), 42)

	assert.True(t, errdef.IsUpstream(err))
}
