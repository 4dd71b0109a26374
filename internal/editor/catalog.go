package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

// ErrUnknownAsset marks a lookup for an asset the catalog has no record of.
var ErrUnknownAsset = errors.New("editor: unknown asset")

// AssetLibrary resolves asset references into the read-only metadata the
// engine needs: native duration for trim bounds and the media locator for
// playback. The engine never writes through this interface.
type AssetLibrary interface {
	Resolve(ctx context.Context, assetID string) (timeline.Asset, error)
}

// CatalogClient reads the studio's asset registry over HTTP. Resolved assets
// are cached for the life of the client; catalog rows are immutable once
// probed, so staleness is not a concern.
type CatalogClient struct {
	baseURL string
	userID  string
	httpc   *http.Client

	mu    sync.Mutex
	cache map[string]timeline.Asset
}

func NewCatalogClient(baseURL, userID string) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		cache:   make(map[string]timeline.Asset),
	}
}

func (c *CatalogClient) Resolve(ctx context.Context, assetID string) (timeline.Asset, error) {
	c.mu.Lock()
	if a, ok := c.cache[assetID]; ok {
		c.mu.Unlock()
		return a, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/assets/"+url.PathEscape(assetID), nil)
	if err != nil {
		return timeline.Asset{}, err
	}
	req.Header.Set("X-User-Id", c.userID)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return timeline.Asset{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return timeline.Asset{}, ErrUnknownAsset
	}
	if resp.StatusCode != http.StatusOK {
		return timeline.Asset{}, fmt.Errorf("fetch asset %s: status %d", assetID, resp.StatusCode)
	}

	var a timeline.Asset
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return timeline.Asset{}, fmt.Errorf("decode asset %s: %w", assetID, err)
	}

	c.mu.Lock()
	c.cache[a.ID] = a
	c.mu.Unlock()
	return a, nil
}

// List fetches the caller's full asset catalog, newest first. Used by media
// pool surfaces; the engine itself only resolves individual assets.
func (c *CatalogClient) List(ctx context.Context) ([]timeline.Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/assets", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-User-Id", c.userID)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list assets: status %d", resp.StatusCode)
	}

	var body struct {
		Assets []timeline.Asset `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode asset list: %w", err)
	}

	c.mu.Lock()
	for _, a := range body.Assets {
		c.cache[a.ID] = a
	}
	c.mu.Unlock()
	return body.Assets, nil
}

// MemoryLibrary is an in-process AssetLibrary for tests and offline tools.
type MemoryLibrary struct {
	mu     sync.Mutex
	assets map[string]timeline.Asset
}

func NewMemoryLibrary(assets ...timeline.Asset) *MemoryLibrary {
	l := &MemoryLibrary{assets: make(map[string]timeline.Asset, len(assets))}
	for _, a := range assets {
		l.assets[a.ID] = a
	}
	return l
}

func (l *MemoryLibrary) Add(a timeline.Asset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.assets[a.ID] = a
}

func (l *MemoryLibrary) Resolve(_ context.Context, assetID string) (timeline.Asset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.assets[assetID]
	if !ok {
		return timeline.Asset{}, ErrUnknownAsset
	}
	return a, nil
}

// All returns the stored assets sorted by id, for deterministic listings.
func (l *MemoryLibrary) All() []timeline.Asset {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]timeline.Asset, 0, len(l.assets))
	for _, a := range l.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
