// Package rows turns capture records into export rows.
package rows

import (
	"fmt"
	"regexp"

	"github.com/lehigh-university-libraries/dc-export/internal/images"
	"github.com/lehigh-university-libraries/dc-export/internal/models"
)

// DefaultItemBase is the public item page root.
const DefaultItemBase = "http://digitalcollections.nypl.org/items"

// representative matches the sort string of the first capture of an item.
var representative = regexp.MustCompile(`0000000001$`)

// IsRepresentative reports whether the capture stands in for its item.
func IsRepresentative(c models.Capture) bool {
	return representative.MatchString(c.SortString)
}

// Builder maps captures to rows.
type Builder struct {
	ItemBase string
	Images   *images.Builder
}

// NewBuilder returns a builder using the public item and image hosts.
func NewBuilder() *Builder {
	return &Builder{
		ItemBase: DefaultItemBase,
		Images:   images.NewBuilder(""),
	}
}

// Build creates the row skeleton for a capture. Location and date are left
// for enrichment.
func (b *Builder) Build(c models.Capture) models.Row {
	return models.Row{
		ID:           c.UUID,
		CollectionID: c.CollectionID,
		Data: models.RowData{
			Title:     c.Title,
			URL:       fmt.Sprintf("%s/%s", b.ItemBase, c.UUID),
			ImageID:   c.ImageID,
			ImageURLs: b.Images.Variants(c),
		},
	}
}
