package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

// RemoteStore talks to the timeline authority over HTTP, one call per settled
// mutation. Responses are decoded as-is; the server's reply is canonical and
// the controller installs it without reinterpretation.
type RemoteStore struct {
	baseURL string
	userID  string
	httpc   *http.Client
}

var _ Persistence = (*RemoteStore)(nil)

func NewRemoteStore(baseURL, userID string) *RemoteStore {
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *RemoteStore) LoadOrCreateTimeline(ctx context.Context, projectID string) (timeline.Timeline, error) {
	var t timeline.Timeline
	err := s.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/timeline", nil, &t)
	return t, err
}

func (s *RemoteStore) FetchTimeline(ctx context.Context, timelineID string) (timeline.Timeline, error) {
	var t timeline.Timeline
	err := s.do(ctx, http.MethodGet, "/timelines/"+url.PathEscape(timelineID), nil, &t)
	return t, err
}

func (s *RemoteStore) AppendClip(ctx context.Context, timelineID string, req AppendRequest) (timeline.Timeline, error) {
	var t timeline.Timeline
	err := s.do(ctx, http.MethodPost, "/timelines/"+url.PathEscape(timelineID)+"/clips", req, &t)
	return t, err
}

func (s *RemoteStore) RemoveClip(ctx context.Context, timelineID, clipID string) (timeline.Timeline, error) {
	var t timeline.Timeline
	err := s.do(ctx, http.MethodDelete, "/timelines/"+url.PathEscape(timelineID)+"/clips/"+url.PathEscape(clipID), nil, &t)
	return t, err
}

func (s *RemoteStore) ReorderClips(ctx context.Context, timelineID string, clips []timeline.Placement) (timeline.Timeline, error) {
	body := map[string]any{"clips": clips}
	var t timeline.Timeline
	err := s.do(ctx, http.MethodPut, "/timelines/"+url.PathEscape(timelineID)+"/clips/order", body, &t)
	return t, err
}

func (s *RemoteStore) UpdateClip(ctx context.Context, timelineID, clipID string, patch ClipPatch) (timeline.Clip, error) {
	var c timeline.Clip
	err := s.do(ctx, http.MethodPatch, "/timelines/"+url.PathEscape(timelineID)+"/clips/"+url.PathEscape(clipID), patch, &c)
	return c, err
}

func (s *RemoteStore) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("X-User-Id", s.userID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// remoteError folds the server's error payload into a plain error so callers
// see the reason ("clip set mismatch", "forbidden") without status plumbing.
func remoteError(method, path string, resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "" {
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, body.Error)
	}
	return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
}
