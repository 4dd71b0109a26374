package editor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

func newCatalogServer(t *testing.T, assets map[string]timeline.Asset, hits *atomic.Int64) *CatalogClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "user-1", r.Header.Get("X-User-Id"))
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/assets" {
			list := make([]timeline.Asset, 0, len(assets))
			for _, a := range assets {
				list = append(list, a)
			}
			json.NewEncoder(w).Encode(map[string]any{"assets": list})
			return
		}

		id := r.URL.Path[len("/assets/"):]
		a, ok := assets[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "asset not found"})
			return
		}
		json.NewEncoder(w).Encode(a)
	}))
	client := NewCatalogClient(srv.URL, "user-1")
	t.Cleanup(func() {
		client.httpc.CloseIdleConnections()
		srv.Close()
	})
	return client
}

func TestCatalogResolveAndCache(t *testing.T) {
	var hits atomic.Int64
	client := newCatalogServer(t, map[string]timeline.Asset{
		"a0": {ID: "a0", Kind: "video", Duration: 3000, MediaURL: mediaURL("a0")},
	}, &hits)

	a, err := client.Resolve(context.Background(), "a0")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), a.Duration)
	assert.Equal(t, mediaURL("a0"), a.MediaURL)

	// Second resolve is served from cache.
	_, err = client.Resolve(context.Background(), "a0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())
}

func TestCatalogResolveUnknownAsset(t *testing.T) {
	var hits atomic.Int64
	client := newCatalogServer(t, nil, &hits)

	_, err := client.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestCatalogListPrimesCache(t *testing.T) {
	var hits atomic.Int64
	client := newCatalogServer(t, map[string]timeline.Asset{
		"a0": {ID: "a0", Kind: "video", Duration: 3000, MediaURL: mediaURL("a0")},
		"a1": {ID: "a1", Kind: "image", MediaURL: mediaURL("a1")},
	}, &hits)

	assets, err := client.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, assets, 2)

	// Every listed asset is now resolvable without another round trip.
	_, err = client.Resolve(context.Background(), "a0")
	require.NoError(t, err)
	_, err = client.Resolve(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())
}

func TestMemoryLibrary(t *testing.T) {
	lib := NewMemoryLibrary(
		timeline.Asset{ID: "b", Kind: "video", Duration: 2000},
		timeline.Asset{ID: "a", Kind: "image"},
	)
	lib.Add(timeline.Asset{ID: "c", Kind: "audio", Duration: 1000})

	got, err := lib.Resolve(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.Duration)

	_, err = lib.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownAsset)

	all := lib.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
}
