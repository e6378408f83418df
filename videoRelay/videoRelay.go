package videoRelay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultAssetsURL = "https://api.mux.com/video/v1/assets"

	streamURLFormat = "https://stream.mux.com/%s.m3u8"
	publicPolicy    = "public"

	upstreamTimeout = 30 * time.Second
)

var (
	ErrMissingCredentials = errors.New("missing Mux credentials")
	ErrMissingPlaybackID  = errors.New("no playback id in Mux response")
)

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("mux api: status=%d, body=%s", e.StatusCode, e.Body)
}

type Handler struct {
	httpClient  *http.Client
	assetsURL   string
	credentials Credentials
	logger      log.FieldLogger
}

func NewHandler(httpClient *http.Client, assetsURL string, credentials Credentials, logger log.FieldLogger) *Handler {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: upstreamTimeout}
	}
	if assetsURL == "" {
		assetsURL = DefaultAssetsURL
	}

	return &Handler{
		httpClient:  httpClient,
		assetsURL:   assetsURL,
		credentials: credentials,
		logger:      logger,
	}
}

// StreamURL is the HLS playback URL for a playback id.
func StreamURL(playbackID string) string {
	return fmt.Sprintf(streamURLFormat, playbackID)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.WithField("invocationId", uuid.NewString())

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var request RelayRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.VideoURL == "" {
		http.Error(w, "Missing videoURL in request body", http.StatusBadRequest)
		return
	}

	if h.credentials.TokenID == "" || h.credentials.TokenSecret == "" {
		logger.Error(ErrMissingCredentials)
		http.Error(w, "Server configuration error: missing Mux credentials", http.StatusInternalServerError)
		return
	}

	logger = logger.WithField("videoURL", request.VideoURL)

	playbackID, err := h.createAsset(r.Context(), request.VideoURL)
	if err != nil {
		logger.WithError(err).Error("unable to create Mux asset")
		h.JSON(w, http.StatusInternalServerError, ErrorResponse{
			Message: "Error creating Mux asset",
			Error:   errorPayload(err),
		})
		return
	}

	logger.WithField("playbackId", playbackID).Info("Mux asset created")
	h.JSON(w, http.StatusOK, RelayResponse{
		Message: "Video uploaded to Mux successfully",
		MuxURL:  StreamURL(playbackID),
	})
}

// JSON writes data as a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("unable to encode response")
	}
}

func (h *Handler) createAsset(ctx context.Context, videoURL string) (string, error) {
	body, err := json.Marshal(createAssetRequest{
		Input:          videoURL,
		PlaybackPolicy: []string{publicPolicy},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.assetsURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(h.credentials.TokenID, h.credentials.TokenSecret)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstreamErr := &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
		if json.Valid(respBody) {
			upstreamErr.Payload = respBody
		}
		return "", upstreamErr
	}

	var asset createAssetResponse
	if err := json.Unmarshal(respBody, &asset); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(asset.Data.PlaybackIDs) == 0 || asset.Data.PlaybackIDs[0].ID == "" {
		return "", ErrMissingPlaybackID
	}

	return asset.Data.PlaybackIDs[0].ID, nil
}

// errorPayload embeds the upstream JSON body when there is one, otherwise
// the error text.
func errorPayload(err error) interface{} {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		if upstreamErr.Payload != nil {
			return upstreamErr.Payload
		}
		return upstreamErr.Body
	}

	return err.Error()
}
