package validation

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	MaxTitleLength = 255
	MaxLinkLength  = 512
	MinRating      = 0.0
	MaxRating      = 5.0
)

// ValidateRating accepts 0.0 through 5.0.
func ValidateRating(rating float64) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("rating must be between %.1f and %.1f", MinRating, MaxRating)
	}
	return nil
}

// ValidateLink accepts an empty value or an absolute http(s) URL.
func ValidateLink(field, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if len(raw) > MaxLinkLength {
		return fmt.Errorf("%s must not exceed %d characters", field, MaxLinkLength)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http or https URL", field)
	}
	return nil
}
