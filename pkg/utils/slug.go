package utils

import "github.com/gosimple/slug"

// Slugify turns a display name into a download-safe file name.
func Slugify(s string) string {
	if out := slug.Make(s); out != "" {
		return out
	}
	return "untitled"
}
