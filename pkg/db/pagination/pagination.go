// Package pagination implements opaque cursor tokens for list endpoints.
// Cursors encode the sort position (created_at, id) of the last row served.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidToken = errors.New("invalid_page_token")

type Cursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(cursor Cursor) string {
	b, _ := json.Marshal(cursor)
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeCursor(token string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, ErrInvalidToken
	}
	return &cursor, nil
}

// Trim drops the probe row fetched beyond the page size and builds the page
// info from it. items must be sorted in the listing order.
func Trim[T any](items []T, limit int, cursorOf func(T) Cursor) ([]T, *PageInfo) {
	if len(items) <= limit {
		return items, &PageInfo{HasMore: false}
	}

	items = items[:limit]
	last := cursorOf(items[len(items)-1])
	return items, &PageInfo{
		NextPageToken: EncodeCursor(last),
		HasMore:       true,
	}
}
