package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// GenerateTags derives the search tag set for a listing: lower-cased words
// of more than two characters taken from brand, model and location, first
// occurrence order, de-duplicated. Called by the repository before every
// insert or update that touches these fields.
func GenerateTags(brand, model, location string) []string {
	seen := make(map[string]struct{})
	var tags []string

	for _, source := range []string{brand, model, location} {
		for _, word := range strings.Fields(strings.ToLower(source)) {
			word = strings.Trim(word, ",.;:()\"'")
			if len(word) <= 2 {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			tags = append(tags, word)
		}
	}

	return tags
}

// FormattedPrice renders a price in rupees with Indian digit grouping,
// e.g. 1250000 -> "₹12,50,000".
func FormattedPrice(price int64) string {
	if price < 0 {
		return "-" + FormattedPrice(-price)
	}

	s := fmt.Sprintf("%d", price)
	if len(s) <= 3 {
		return "₹" + s
	}

	// Last group of three digits, then groups of two
	head := s[:len(s)-3]
	groups := []string{s[len(s)-3:]}
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}

	return "₹" + strings.Join(groups, ",")
}

// ListingAge renders how long ago a listing was created, bucketed to days,
// weeks and months.
func ListingAge(createdAt, now time.Time) string {
	days := int(math.Ceil(now.Sub(createdAt).Hours() / 24))
	if days <= 1 {
		return "1 day ago"
	}
	if days < 7 {
		return fmt.Sprintf("%d days ago", days)
	}
	if days < 30 {
		return fmt.Sprintf("%d weeks ago", days/7)
	}
	return fmt.Sprintf("%d months ago", days/30)
}
