package dto

type SearchRequest struct {
	Keyword string `json:"keyword"`
}

type SearchResponse struct {
	VideoID         string  `json:"video_id"`
	DurationSeconds float64 `json:"duration_seconds"`
	Cached          bool    `json:"cached,omitempty"`
}

type ErrorResponse struct {
	Error           string  `json:"error"`
	Detail          string  `json:"detail,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
}
