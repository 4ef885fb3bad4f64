package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTags(t *testing.T) {
	tags := GenerateTags("Kirloskar", "KG1-62.5AS", "Mumbai, Maharashtra")

	assert.Contains(t, tags, "kirloskar")
	assert.Contains(t, tags, "kg1-62.5as")
	assert.Contains(t, tags, "mumbai")
	assert.Contains(t, tags, "maharashtra")
}

func TestGenerateTags_DropsShortWords(t *testing.T) {
	tags := GenerateTags("AB Power", "X1", "Pune")

	assert.NotContains(t, tags, "ab")
	assert.NotContains(t, tags, "x1")
	assert.Equal(t, []string{"power", "pune"}, tags)
}

func TestGenerateTags_Deduplicates(t *testing.T) {
	tags := GenerateTags("Cummins", "Cummins C150", "Chennai")

	assert.Equal(t, []string{"cummins", "c150", "chennai"}, tags)
}

func TestFormattedPrice(t *testing.T) {
	assert.Equal(t, "₹850", FormattedPrice(850))
	assert.Equal(t, "₹8,500", FormattedPrice(8500))
	assert.Equal(t, "₹85,000", FormattedPrice(85000))
	assert.Equal(t, "₹8,50,000", FormattedPrice(850000))
	assert.Equal(t, "₹12,50,000", FormattedPrice(1250000))
	assert.Equal(t, "₹1,00,00,000", FormattedPrice(10000000))
}

func TestListingAge(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "1 day ago", ListingAge(now.Add(-2*time.Hour), now))
	assert.Equal(t, "3 days ago", ListingAge(now.AddDate(0, 0, -3), now))
	assert.Equal(t, "2 weeks ago", ListingAge(now.AddDate(0, 0, -15), now))
	assert.Equal(t, "2 months ago", ListingAge(now.AddDate(0, 0, -61), now))
}

func TestDefaultDisplayName(t *testing.T) {
	assert.Equal(t, "User 3210", DefaultDisplayName("919876543210"))
	assert.Equal(t, "User 123", DefaultDisplayName("123"))
}
