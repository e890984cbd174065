// Package pagination normalizes list paging and ordering parameters.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPageToken is returned for tokens that were not issued by
// EncodeToken or were issued for a different query.
var ErrInvalidPageToken = errors.New("invalid page token")

// ErrInvalidOrderBy is returned for order_by values outside the allowed set.
var ErrInvalidOrderBy = errors.New("invalid order_by")

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// OrderByConfig configures order_by validation.
type OrderByConfig struct {
	Default string
	Allowed []string
}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// ParsePageSize clamps a raw page_size query value. Values that are not
// integers fall back to the default.
func ParsePageSize(raw string, cfg PageSizeConfig) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		value = 0
	}
	return ClampPageSize(value, cfg)
}

// NormalizeOrderBy validates order_by and applies defaults. Whitespace runs
// are collapsed and direction keywords lowercased before matching.
func NormalizeOrderBy(orderBy string, cfg OrderByConfig) (string, error) {
	normalized := strings.Join(strings.Fields(orderBy), " ")
	if normalized == "" {
		return cfg.Default, nil
	}
	if parts := strings.SplitN(normalized, " ", 2); len(parts) == 2 {
		normalized = parts[0] + " " + strings.ToLower(parts[1])
	}
	for _, allowed := range cfg.Allowed {
		if normalized == allowed {
			return normalized, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidOrderBy, orderBy)
}

// Cursor is the decoded form of a page token. Query binds the token to the
// filter and ordering it was issued for.
type Cursor struct {
	Offset int
	Query  string
}

// EncodeToken returns an opaque token for the next page.
func EncodeToken(c Cursor) string {
	raw := strconv.Itoa(c.Offset) + "|" + c.Query
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeToken parses a token and verifies it belongs to query. An empty token
// yields offset zero.
func DecodeToken(token, query string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{Query: query}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidPageToken
	}
	offsetPart, queryPart, ok := strings.Cut(string(raw), "|")
	if !ok {
		return Cursor{}, ErrInvalidPageToken
	}
	offset, err := strconv.Atoi(offsetPart)
	if err != nil || offset < 0 {
		return Cursor{}, ErrInvalidPageToken
	}
	if queryPart != query {
		return Cursor{}, ErrInvalidPageToken
	}
	return Cursor{Offset: offset, Query: query}, nil
}

// NextToken returns the token for the page after one starting at offset, or
// "" when fetched holds no more than pageSize rows. Callers fetch pageSize+1
// rows to detect a following page.
func NextToken(offset, pageSize, fetched int, query string) string {
	if fetched <= pageSize {
		return ""
	}
	return EncodeToken(Cursor{Offset: offset + pageSize, Query: query})
}
