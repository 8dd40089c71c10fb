package domain

import (
	"encoding/base64"
	"strconv"
)

// PageRequest bounds a SELECT to one page of rows.
//
// A Limit of zero or less requests zero rows; it never disables pagination.
// WithTotal asks for a companion count over the same predicate.
type PageRequest struct {
	Offset    int64
	Limit     int64
	WithTotal bool
}

// Validate checks that the request is well-formed.
func (p PageRequest) Validate() error {
	if p.Offset < 0 {
		return ErrValidation("page offset must not be negative")
	}
	return nil
}

// EffectiveLimit returns the row bound to apply, clamped to [0, maxLimit].
// A maxLimit of zero or less means unbounded.
func (p PageRequest) EffectiveLimit(maxLimit int64) int64 {
	limit := p.Limit
	if limit < 0 {
		limit = 0
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// PageRequestFromToken decodes an opaque page token into a request with the
// given limit. An empty or invalid token starts at offset 0.
func PageRequestFromToken(token string, limit int64, withTotal bool) PageRequest {
	return PageRequest{Offset: decodePageToken(token), Limit: limit, WithTotal: withTotal}
}

func decodePageToken(token string) int64 {
	if token == "" {
		return 0
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0
	}
	offset, err := strconv.ParseInt(string(decoded), 10, 64)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// EncodePageToken creates an opaque page token from an offset.
// Returns empty string if offset is 0 or negative.
func EncodePageToken(offset int64) string {
	if offset <= 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatInt(offset, 10)))
}

// NextPageToken calculates the next page token based on current offset, limit, and total count.
// Returns empty string if there are no more pages.
func NextPageToken(offset, limit, total int64) string {
	if limit <= 0 {
		return ""
	}
	next := offset + limit
	if next >= total {
		return ""
	}
	return EncodePageToken(next)
}
