package model

import (
	"errors"
	"strings"
)

// ErrInvalidTag is returned for empty or malformed player/clan tags.
var ErrInvalidTag = errors.New("invalid tag")

// NormalizeTag canonicalises a player or clan tag: upper-case with a leading '#'.
// A URL-encoded '#' ("%23") is accepted.
func NormalizeTag(s string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	t = strings.TrimPrefix(t, "%23")
	t = strings.TrimPrefix(t, "#")
	if t == "" || strings.ContainsAny(t, "#/ ") {
		return "", ErrInvalidTag
	}
	return "#" + t, nil
}
