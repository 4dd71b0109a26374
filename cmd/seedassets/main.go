// Command seedassets registers a set of demo media assets with the timeline
// service, standing in for the upload pipeline during local development.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type seedAsset struct {
	Kind         string `json:"kind"`
	Duration     int64  `json:"duration"`
	MediaURL     string `json:"mediaUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

var fixtures = []seedAsset{
	{Kind: "video", Duration: 12000, MediaURL: "https://cdn.example.com/demo/skate-intro.mp4", ThumbnailURL: "https://cdn.example.com/demo/skate-intro.jpg"},
	{Kind: "video", Duration: 8500, MediaURL: "https://cdn.example.com/demo/city-roll.mp4", ThumbnailURL: "https://cdn.example.com/demo/city-roll.jpg"},
	{Kind: "video", Duration: 23000, MediaURL: "https://cdn.example.com/demo/sunset-line.mp4", ThumbnailURL: "https://cdn.example.com/demo/sunset-line.jpg"},
	{Kind: "video", Duration: 0, MediaURL: "https://cdn.example.com/demo/unprobed-take.mp4"},
	{Kind: "image", Duration: 0, MediaURL: "https://cdn.example.com/demo/title-card.png"},
	{Kind: "audio", Duration: 64000, MediaURL: "https://cdn.example.com/demo/backing-track.mp3"},
}

func main() {
	_ = godotenv.Load()

	base := getenv("TIMELINE_SERVICE_URL", "http://localhost:4001")
	userID := getenv("SEED_USER_ID", "dev-user")

	httpc := &http.Client{Timeout: 10 * time.Second}
	for _, a := range fixtures {
		body, err := json.Marshal(a)
		if err != nil {
			log.Fatalf("seedassets: marshal fixture: %v", err)
		}
		req, err := http.NewRequest(http.MethodPost, base+"/assets", bytes.NewReader(body))
		if err != nil {
			log.Fatalf("seedassets: build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-Id", userID)

		resp, err := httpc.Do(req)
		if err != nil {
			log.Fatalf("seedassets: POST /assets: %v", err)
		}
		var created struct {
			ID string `json:"id"`
		}
		if resp.StatusCode != http.StatusCreated {
			resp.Body.Close()
			log.Fatalf("seedassets: POST /assets: status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			resp.Body.Close()
			log.Fatalf("seedassets: decode response: %v", err)
		}
		resp.Body.Close()
		fmt.Printf("registered %s asset %s (%dms) %s\n", a.Kind, created.ID, a.Duration, a.MediaURL)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
