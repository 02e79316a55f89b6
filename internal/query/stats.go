package query

import (
	"math"

	"github.com/fentz26/radar/internal/models"
)

// Summarize computes dashboard statistics over a record set. Category rows
// follow DistinctCategories order; missing items keep input order.
func Summarize(items []models.Item) models.Stats {
	st := models.Stats{
		Total:            len(items),
		Categories:       []models.CategoryCount{},
		MissingEssential: []models.Item{},
		MissingOther:     []models.Item{},
	}

	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Category]++
		if item.IsEssential {
			st.Essential++
		}
		switch item.Status {
		case models.ItemStatusDetected:
			st.Detected++
		case models.ItemStatusMissing:
			st.Missing++
			if item.IsEssential {
				st.EssentialMissing++
				st.MissingEssential = append(st.MissingEssential, item)
			} else {
				st.MissingOther = append(st.MissingOther, item)
			}
		}
	}

	st.CompletionPercent = percent(st.Detected, st.Total)
	for _, c := range DistinctCategories(items) {
		st.Categories = append(st.Categories, models.CategoryCount{
			Category:   c,
			Count:      counts[c],
			Percentage: percent(counts[c], st.Total),
		})
	}
	return st
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(total)))
}
