// Package collections loads the configured collection list and selects the
// collections flagged for export.
package collections

import (
	"iter"

	"github.com/lehigh-university-libraries/dc-export/internal/models"
)

// Included yields, in order, the collections whose Include flag is set.
func Included(list []models.Collection) iter.Seq[models.Collection] {
	return func(yield func(models.Collection) bool) {
		for _, c := range list {
			if !c.Include {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}
