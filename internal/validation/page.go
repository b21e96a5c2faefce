// Package validation holds input rules shared by services and CLIs.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var pageSlugRegex = regexp.MustCompile(`^[a-z0-9-]{2,64}$`)

// Slugs that would shadow API or site routes.
var reservedPageSlugs = map[string]struct{}{
	"admin":      {},
	"api":        {},
	"auth":       {},
	"categories": {},
	"games":      {},
	"health":     {},
	"login":      {},
	"logout":     {},
	"metrics":    {},
	"pages":      {},
	"signup":     {},
	"slug":       {},
	"swagger":    {},
	"ws":         {},
}

// ValidatePageSlug validates page slug format and reserved names.
func ValidatePageSlug(slug string) error {
	if !pageSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 2-64 characters and contain only lowercase letters, numbers, and hyphens")
	}

	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}

	if _, exists := reservedPageSlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}

	return nil
}
