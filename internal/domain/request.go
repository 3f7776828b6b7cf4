// Package domain holds the types shared by the watch pipeline and its collaborators.
package domain

import (
	"errors"
	"strings"
)

// DefaultFormat is the output format used when neither a machine nor the
// user names one.
const DefaultFormat = "dst"

// Validation errors
var (
	ErrWatchDirRequired        = errors.New("watch directory is required")
	ErrPreferredFormatRequired = errors.New("preferred format is required")
)

// WatchRequest describes one watch session. It is built once before the loop
// starts and never modified afterwards.
type WatchRequest struct {
	Dir             string
	AcceptedFormats []string
	PreferredFormat string

	// USBPath is the directory on the removable volume that receives designs.
	// Empty means the volume root.
	USBPath string
}

// NewWatchRequest builds a request from resolved settings. Extensions are
// lowercased, stripped of a leading dot, and de-duplicated in order. An empty
// accepted list falls back to the preferred format alone.
func NewWatchRequest(dir string, accepted []string, preferred, usbPath string) (WatchRequest, error) {
	if dir == "" {
		return WatchRequest{}, ErrWatchDirRequired
	}
	preferred = NormalizeExt(preferred)
	if preferred == "" {
		return WatchRequest{}, ErrPreferredFormatRequired
	}

	seen := make(map[string]bool, len(accepted))
	formats := make([]string, 0, len(accepted))
	for _, f := range accepted {
		f = NormalizeExt(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		formats = []string{preferred}
	}

	req := WatchRequest{
		Dir:             dir,
		AcceptedFormats: formats,
		PreferredFormat: preferred,
		USBPath:         usbPath,
	}
	return req, nil
}

// Accepts reports whether ext is one of the accepted formats.
func (r WatchRequest) Accepts(ext string) bool {
	ext = NormalizeExt(ext)
	for _, f := range r.AcceptedFormats {
		if f == ext {
			return true
		}
	}
	return false
}

// NormalizeExt lowercases an extension and removes a leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
