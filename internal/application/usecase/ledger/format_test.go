package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

func TestFormatShortfallVolume(t *testing.T) {
	assert.Equal(t, "100 MB", FormatShortfall(catalog.UnitVolume, 100))
	assert.Equal(t, "999 MB", FormatShortfall(catalog.UnitVolume, 999))
	assert.Equal(t, "1.00 GB", FormatShortfall(catalog.UnitVolume, 1000))
	assert.Equal(t, "2.50 GB", FormatShortfall(catalog.UnitVolume, 2500))
}

func TestFormatShortfallTime(t *testing.T) {
	assert.Equal(t, "45 mn", FormatShortfall(catalog.UnitTime, 45))
	assert.Equal(t, "1.0 h", FormatShortfall(catalog.UnitTime, 60))
	assert.Equal(t, "1.5 h", FormatShortfall(catalog.UnitTime, 90))
}
