// Package parser extracts structured generator listing data from
// semi-structured WhatsApp message text. Pure pattern matching, no I/O.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Fields is the best-effort structured extraction of one listing message.
// Missing numeric fields stay 0, missing strings stay empty, a missing
// description falls back to the whole raw message.
type Fields struct {
	Type         string `json:"type"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Price        int64  `json:"price"`
	HoursRun     int64  `json:"hours_run"`
	LocationText string `json:"location_text"`
	Description  string `json:"description"`
	Contact      string `json:"contact"`
}

// Result is the outcome of parsing one message
type Result struct {
	Success bool     `json:"success"`
	Data    Fields   `json:"data"`
	Errors  []string `json:"errors"`
}

// Line-anchored, case-insensitive field patterns
var (
	typePattern        = regexp.MustCompile(`(?im)^type:\s*(.+)$`)
	brandPattern       = regexp.MustCompile(`(?im)^brand:\s*(.+)$`)
	modelPattern       = regexp.MustCompile(`(?im)^model:\s*(.+)$`)
	pricePattern       = regexp.MustCompile(`(?im)^price:\s*₹?\s*([0-9,]+)`)
	hoursPattern       = regexp.MustCompile(`(?im)^hours:\s*([0-9,]+)`)
	locationPattern    = regexp.MustCompile(`(?im)^location:\s*(.+)$`)
	contactPattern     = regexp.MustCompile(`(?im)^contact:\s*([0-9+ \t-]+)`)
	descriptionPattern = regexp.MustCompile(`(?ims)^description:\s*(.+?)(?:\n\n|\z)`)

	generatorKeywords = regexp.MustCompile(`(?i)generator|genset|dg\s*set|diesel\s*generator`)
)

var requiredFields = []string{"brand", "model", "price", "hours", "location"}

// Parse extracts listing fields from raw message text. It never panics:
// any failure during extraction is converted into a single parsing-error
// result.
func Parse(text string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Success: false,
				Errors:  []string{fmt.Sprintf("Parsing error: %v", r)},
			}
		}
	}()

	raw := map[string]string{}
	extract := func(field string, pattern *regexp.Regexp) {
		if m := pattern.FindStringSubmatch(text); m != nil {
			if value := strings.TrimSpace(m[1]); value != "" {
				raw[field] = value
			}
		}
	}

	extract("type", typePattern)
	extract("brand", brandPattern)
	extract("model", modelPattern)
	extract("price", pricePattern)
	extract("hours", hoursPattern)
	extract("location", locationPattern)
	extract("contact", contactPattern)
	extract("description", descriptionPattern)

	var errs []string
	for _, field := range requiredFields {
		if raw[field] == "" {
			errs = append(errs, "Missing required field: "+field)
		}
	}

	var price int64
	if rawPrice := raw["price"]; rawPrice != "" {
		clean := strings.NewReplacer("₹", "", ",", "", " ", "").Replace(rawPrice)
		parsed, err := strconv.ParseInt(clean, 10, 64)
		if err != nil || parsed <= 0 {
			errs = append(errs, "Invalid price format")
		} else {
			price = parsed
		}
	}

	var hours int64
	if rawHours := raw["hours"]; rawHours != "" {
		clean := strings.NewReplacer(",", "", " ", "").Replace(rawHours)
		parsed, err := strconv.ParseInt(clean, 10, 64)
		if err != nil || parsed < 0 {
			errs = append(errs, "Invalid hours format")
		} else {
			hours = parsed
		}
	}

	// The message must look like a generator listing: either a generator
	// keyword anywhere in the text or an explicit type field saying so.
	if !generatorKeywords.MatchString(text) &&
		!strings.Contains(strings.ToLower(raw["type"]), "generator") {
		errs = append(errs, "Message does not appear to be a generator listing")
	}

	description := raw["description"]
	if description == "" {
		description = text
	}

	return Result{
		Success: len(errs) == 0,
		Data: Fields{
			Type:         raw["type"],
			Brand:        raw["brand"],
			Model:        raw["model"],
			Price:        price,
			HoursRun:     hours,
			LocationText: raw["location"],
			Description:  description,
			Contact:      strings.TrimSpace(raw["contact"]),
		},
		Errors: errs,
	}
}
