package videoRelay

import "encoding/json"

type Credentials struct {
	TokenID     string
	TokenSecret string
}

type RelayRequest struct {
	VideoURL string `json:"videoURL"`
}

type RelayResponse struct {
	Message string `json:"message"`
	MuxURL  string `json:"muxURL"`
}

type ErrorResponse struct {
	Message string      `json:"message"`
	Error   interface{} `json:"error"`
}

type createAssetRequest struct {
	Input          string   `json:"input"`
	PlaybackPolicy []string `json:"playback_policy"`
}

type playbackID struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
}

type createAssetResponse struct {
	Data struct {
		ID          string       `json:"id"`
		Status      string       `json:"status"`
		PlaybackIDs []playbackID `json:"playback_ids"`
	} `json:"data"`
}

// UpstreamError carries a non-2xx response from the video API. Payload holds
// the raw body when it is valid JSON.
type UpstreamError struct {
	StatusCode int
	Payload    json.RawMessage
	Body       string
}
