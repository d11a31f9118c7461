package util

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	dashRuns     = regexp.MustCompile(`-+`)
)

// GenerateSlug 生成 URL 友好的 slug，空结果回退为 "item"
func GenerateSlug(s string) string {
	slug := strings.ToLower(strings.TrimSpace(s))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = dashRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "item"
	}
	return slug
}
