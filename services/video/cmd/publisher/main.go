package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipway/pkg/config"
	"clipway/pkg/geocode"
	"clipway/pkg/logger"
	"clipway/services/video/internal/capture"
	"clipway/services/video/internal/entity"
)

// Command-line publishing client: records or picks a local video, composes a
// draft over the HTTP API and follows the publish pipeline to completion.
func main() {
	var (
		email     = flag.String("email", "", "account email")
		password  = flag.String("password", "", "account password")
		videoPath = flag.String("video", "", "pick this local video file (gallery path)")
		cameraSrc = flag.String("camera", "", "record from this source file (camera path)")
		caption   = flag.String("caption", "", "caption text")
		hashtags  = flag.String("hashtags", "", "comma-separated hashtags (#a,#b)")
		mentions  = flag.String("mentions", "", "comma-separated mentions (@a,@b)")
		lat       = flag.Float64("lat", 0, "device latitude")
		lon       = flag.Float64("lon", 0, "device longitude")
		geotag    = flag.Bool("geotag", false, "attach a location resolved from -lat/-lon")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New()

	if *email == "" || *password == "" {
		log.Error("Both -email and -password are required")
		os.Exit(1)
	}

	ctx := context.Background()

	mediaRef, err := acquireMedia(ctx, *videoPath, *cameraSrc)
	if err != nil {
		if errors.Is(err, capture.ErrCancelled) {
			log.Info("Selection cancelled")
			return
		}
		log.Error("Failed to acquire media: %v", err)
		os.Exit(1)
	}
	log.Info("Using media file %s", mediaRef)

	// Location resolution runs while the draft is being composed.
	var place <-chan string
	if *geotag {
		resolver := geocode.NewResolver(
			geocode.NewClient(cfg),
			staticPermissions{granted: true},
			staticPositions{lat: *lat, lon: *lon},
		)
		place = resolver.ResolveAsync(ctx)
	}

	client := &apiClient{
		authURL:  cfg.AuthServiceURL,
		videoURL: cfg.VideoServiceURL,
		http:     &http.Client{Timeout: 5 * time.Minute},
	}

	if err := client.login(ctx, *email, *password); err != nil {
		log.Error("Login failed: %v", err)
		os.Exit(1)
	}

	draft, err := client.createDraft(ctx, mediaRef)
	if err != nil {
		log.Error("Failed to create draft: %v", err)
		os.Exit(1)
	}
	log.Info("Created draft %s", draft.ID)

	if *caption != "" {
		if err := client.setCaption(ctx, draft.ID, *caption); err != nil {
			log.Error("Failed to set caption: %v", err)
			os.Exit(1)
		}
	}
	for _, tag := range splitList(*hashtags) {
		if err := client.addHashtag(ctx, draft.ID, tag); err != nil {
			log.Error("Failed to add hashtag %s: %v", tag, err)
			os.Exit(1)
		}
	}
	for _, handle := range splitList(*mentions) {
		if err := client.addMention(ctx, draft.ID, handle); err != nil {
			log.Error("Failed to add mention %s: %v", handle, err)
			os.Exit(1)
		}
	}

	if *geotag {
		if resolved := <-place; resolved != "" {
			log.Info("Resolved location: %s", resolved)
		} else {
			log.Info("Location unresolved, the published video will carry the sentinel")
		}
		if err := client.setLocation(ctx, draft.ID, *lat, *lon); err != nil {
			log.Error("Failed to set location: %v", err)
			os.Exit(1)
		}
	}

	if err := client.publish(ctx, draft.ID); err != nil {
		log.Error("Failed to start publish: %v", err)
		os.Exit(1)
	}
	log.Info("Publish started")

	final, err := client.awaitPublish(ctx, draft.ID)
	if err != nil {
		log.Error("Publish failed: %v", err)
		os.Exit(1)
	}
	log.Info("Published video %s", final.VideoID)
}

// acquireMedia follows the two capture paths: an explicit -video flag is the
// gallery pick, otherwise -camera drives a simulated recording session.
func acquireMedia(ctx context.Context, videoPath, cameraSrc string) (string, error) {
	if videoPath != "" {
		gallery := capture.NewGallery(
			filePicker{path: videoPath},
			staticStoragePermissions{},
		)
		return gallery.Pick(ctx)
	}

	if cameraSrc == "" {
		return "", fmt.Errorf("either -video or -camera is required")
	}

	recorder := capture.NewRecorder(&fileDevice{source: cameraSrc}, capture.PositionBack, true)
	if err := recorder.Initialize(ctx); err != nil {
		return "", err
	}
	defer recorder.Dispose(ctx)

	if err := recorder.Start(ctx); err != nil {
		return "", err
	}
	return recorder.Stop(ctx)
}

// fileDevice simulates the camera: a recording session copies the source file
// into a temp clip.
type fileDevice struct {
	source    string
	recording bool
}

func (d *fileDevice) Initialize(ctx context.Context, position capture.DevicePosition, audioEnabled bool) error {
	if _, err := os.Stat(d.source); err != nil {
		return fmt.Errorf("camera source unavailable: %w", err)
	}
	return nil
}

func (d *fileDevice) StartRecording(ctx context.Context) error {
	d.recording = true
	return nil
}

func (d *fileDevice) StopRecording(ctx context.Context) (string, error) {
	if !d.recording {
		return "", fmt.Errorf("no recording in progress")
	}
	d.recording = false

	src, err := os.Open(d.source)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "clipway-recording-*"+filepath.Ext(d.source))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func (d *fileDevice) Dispose(ctx context.Context) error {
	d.recording = false
	return nil
}

// filePicker "picks" the file given on the command line; a missing file is
// treated as a cancelled selection.
type filePicker struct {
	path string
}

func (p filePicker) PickVideo(ctx context.Context) (string, error) {
	if _, err := os.Stat(p.path); err != nil {
		return "", capture.ErrCancelled
	}
	return p.path, nil
}

type staticStoragePermissions struct{}

func (staticStoragePermissions) RequestStorageRead(ctx context.Context) (capture.PermissionStatus, error) {
	return capture.PermissionGranted, nil
}

type staticPermissions struct {
	granted bool
}

func (p staticPermissions) LocationGranted(ctx context.Context) bool {
	return p.granted
}

type staticPositions struct {
	lat, lon float64
}

func (p staticPositions) CurrentPosition(ctx context.Context) (geocode.Position, error) {
	return geocode.Position{Latitude: p.lat, Longitude: p.lon}, nil
}

type apiClient struct {
	authURL  string
	videoURL string
	token    string
	http     *http.Client
}

func (c *apiClient) login(ctx context.Context, email, password string) error {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, "POST", c.authURL+"/api/v1/login", bytes.NewReader(body), &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

func (c *apiClient) createDraft(ctx context.Context, mediaRef string) (*entity.MediaDraft, error) {
	file, err := os.Open(mediaRef)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("video", filepath.Base(mediaRef))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", c.videoURL+"/api/v1/drafts", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusCreated {
		return nil, apiError(httpResp)
	}

	var draft entity.MediaDraft
	if err := json.NewDecoder(httpResp.Body).Decode(&draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (c *apiClient) setCaption(ctx context.Context, draftID, caption string) error {
	body, _ := json.Marshal(map[string]string{"caption": caption})
	return c.doJSON(ctx, "PUT", fmt.Sprintf("%s/api/v1/drafts/%s/caption", c.videoURL, draftID), bytes.NewReader(body), nil)
}

func (c *apiClient) addHashtag(ctx context.Context, draftID, tag string) error {
	body, _ := json.Marshal(map[string]string{"tag": tag})
	return c.doJSON(ctx, "POST", fmt.Sprintf("%s/api/v1/drafts/%s/hashtags", c.videoURL, draftID), bytes.NewReader(body), nil)
}

func (c *apiClient) addMention(ctx context.Context, draftID, handle string) error {
	body, _ := json.Marshal(map[string]string{"handle": handle})
	return c.doJSON(ctx, "POST", fmt.Sprintf("%s/api/v1/drafts/%s/mentions", c.videoURL, draftID), bytes.NewReader(body), nil)
}

func (c *apiClient) setLocation(ctx context.Context, draftID string, lat, lon float64) error {
	body, _ := json.Marshal(map[string]float64{"latitude": lat, "longitude": lon})
	return c.doJSON(ctx, "POST", fmt.Sprintf("%s/api/v1/drafts/%s/location", c.videoURL, draftID), bytes.NewReader(body), nil)
}

func (c *apiClient) publish(ctx context.Context, draftID string) error {
	return c.doJSON(ctx, "POST", fmt.Sprintf("%s/api/v1/drafts/%s/publish", c.videoURL, draftID), nil, nil)
}

// awaitPublish polls the progress endpoint until the pipeline reaches a
// terminal state.
func (c *apiClient) awaitPublish(ctx context.Context, draftID string) (*entity.PublishProgress, error) {
	endpoint := fmt.Sprintf("%s/api/v1/drafts/%s/progress", c.videoURL, draftID)

	for {
		var progress entity.PublishProgress
		if err := c.doJSON(ctx, "GET", endpoint, nil, &progress); err != nil {
			return nil, err
		}

		switch progress.State {
		case entity.PipelinePublished:
			return &progress, nil
		case entity.PipelineFailed:
			return nil, fmt.Errorf("%s", progress.Reason)
		}

		fmt.Printf("\r%-12s %5.1f%%", progress.State, progress.Percent)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (c *apiClient) doJSON(ctx context.Context, method, endpoint string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, payload.Error)
	}
	return fmt.Errorf("unexpected status %s", resp.Status)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
