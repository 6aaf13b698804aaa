// Package images derives the image URL variants available for a capture.
package images

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lehigh-university-libraries/dc-export/internal/models"
)

// DefaultHost serves capture derivatives by image id and size tier.
const DefaultHost = "http://images.nypl.org/index.php"

// Tier is a derivative size offered by the image server.
type Tier struct {
	Tag  string
	Size int
}

// Tiers lists the derivatives exported for each capture, smallest first.
var Tiers = []Tier{
	{Tag: "w", Size: 760},
	{Tag: "q", Size: 1600},
	{Tag: "v", Size: 2560},
}

// Builder constructs image URLs against an image host.
type Builder struct {
	Host string
}

// NewBuilder creates a builder for host, or DefaultHost when host is empty.
func NewBuilder(host string) *Builder {
	if host == "" {
		host = DefaultHost
	}
	return &Builder{Host: host}
}

// URL returns the derivative URL for imageID at tier.
func (b *Builder) URL(imageID string, tier Tier) string {
	return fmt.Sprintf("%s?id=%s&t=%s", b.Host, url.QueryEscape(imageID), url.QueryEscape(tier.Tag))
}

// Variants returns one URL per tier whose tag appears in the capture's
// reported image links. When no link names a known tier the smallest tier is
// returned on its own.
func (b *Builder) Variants(capture models.Capture) []models.ImageURL {
	var out []models.ImageURL
	for _, tier := range Tiers {
		if !hasTier(capture.ImageLinks, tier) {
			continue
		}
		out = append(out, models.ImageURL{Size: tier.Size, URL: b.URL(capture.ImageID, tier)})
	}
	if len(out) == 0 {
		fallback := Tiers[0]
		out = append(out, models.ImageURL{Size: fallback.Size, URL: b.URL(capture.ImageID, fallback)})
	}
	return out
}

func hasTier(links []string, tier Tier) bool {
	marker := "&t=" + tier.Tag
	for _, link := range links {
		if strings.Contains(link, marker) {
			return true
		}
	}
	return false
}
