package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tibiantis-tools/deathwatch/internal/logging"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, srv.URL, 5*time.Second, logging.Default(), opts...)
	return client, srv
}

func TestCharacterPageFetch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "character", r.URL.Query().Get("page"))
		assert.Equal(t, "Karius", r.URL.Query().Get("name"))
		w.Write([]byte(characterPageFixture))
	}))

	page, err := client.CharacterPage(context.Background(), "Karius")
	require.NoError(t, err)
	assert.Equal(t, "Karius", page.Character.Name)
	assert.Len(t, page.Deaths, 3)
}

func TestCharacterPageNotFoundDistinctFromTransient(t *testing.T) {
	notFoundBody := `<html><body><table><tr><td>Could not find character.</td></tr></table></body></html>`

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(notFoundBody))
	}))

	_, err := client.CharacterPage(context.Background(), "Nobody")
	assert.ErrorIs(t, err, ErrCharacterNotFound)

	failing, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err = failing.CharacterPage(context.Background(), "Karius")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCharacterNotFound))
}

func TestCharacterPageUsesCache(t *testing.T) {
	var hits atomic.Int64
	mr := miniredis.RunT(t)

	cache, err := NewRedisPageCache("redis://"+mr.Addr(), time.Minute, logging.Default())
	require.NoError(t, err)
	defer cache.Close()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(characterPageFixture))
	}), WithPageCache(cache))

	for i := 0; i < 3; i++ {
		_, err := client.CharacterPage(context.Background(), "Karius")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), hits.Load())
}

func TestOnlinePlayersMinLevelFilter(t *testing.T) {
	fixture := `
<html><body><table class="mytab long">
  <tr><td>#</td><td>Name</td><td>Vocation</td><td>Sex</td><td>Level</td></tr>
  <tr><td>1</td><td>Low Guy</td><td>Druid</td><td>male</td><td>12</td></tr>
  <tr><td>2</td><td>High Guy</td><td>Knight</td><td>male</td><td>77</td></tr>
</table></body></html>`

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats/online", r.URL.Path)
		w.Write([]byte(fixture))
	}))

	players, err := client.OnlinePlayers(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "High Guy", players[0].Name)
}
