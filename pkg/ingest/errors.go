package ingest

import "errors"

// Validation rejections. These short-circuit before any store mutation; the
// transport layer decides the response code.
var (
	ErrMissingDeviceID    = errors.New("missing device_id")
	ErrMalformedMetrics   = errors.New("malformed metrics")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
)

// RejectionTag maps a validation error to its wire tag, or "" when the error
// is not a validation rejection.
func RejectionTag(err error) string {
	switch {
	case errors.Is(err, ErrMissingDeviceID):
		return "missing_device_id"
	case errors.Is(err, ErrMalformedMetrics):
		return "malformed_metrics"
	case errors.Is(err, ErrMalformedTimestamp):
		return "malformed_timestamp"
	default:
		return ""
	}
}
