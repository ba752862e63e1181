package orderflow

import (
	"strings"

	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/order"
)

// addListLoad measures an update's add list in the sales unit.
func addListLoad(update *order.ContentUpdate, unit catalog.LoadUnit) int64 {
	var total int64
	for _, it := range update.AddList {
		if unit == catalog.UnitTime {
			total += int64(it.DurationMin)
		} else {
			total += int64(it.SizeMB)
		}
	}
	return total
}

// splitNames breaks a multi-part resource field into its file parts.
func splitNames(resource string) []string {
	if resource == "" {
		return nil
	}
	parts := strings.Split(resource, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
