package ledger

import (
	"fmt"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

// FormatShortfall renders a missing quantity of load for user display.
// Volume reads in GB past a thousand MB; time reads in hours.
func FormatShortfall(unit catalog.LoadUnit, amount int64) string {
	if unit == catalog.UnitTime {
		if amount < 60 {
			return fmt.Sprintf("%d mn", amount)
		}
		return fmt.Sprintf("%.1f h", float64(amount)/60)
	}
	if amount >= 1000 {
		return fmt.Sprintf("%.2f GB", float64(amount)/1000)
	}
	return fmt.Sprintf("%d MB", amount)
}
