package dto

import "time"

type BasicResponse struct {
	Ok        bool      `json:"ok"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBasicResponse(ok bool, details string) BasicResponse {
	return BasicResponse{
		Ok:        ok,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// NewErrorResponse wraps a failed request's error for the client.
func NewErrorResponse(err error) BasicResponse {
	return NewBasicResponse(false, err.Error())
}
