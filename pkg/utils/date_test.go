package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	t.Run("Data válida é convertida", func(t *testing.T) {
		date, err := ParseDate("2024-03-10")
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), *date)
	})

	t.Run("Formato inválido retorna erro", func(t *testing.T) {
		_, err := ParseDate("10/03/2024")
		assert.Error(t, err)
	})
}

func TestTruncateToDay(t *testing.T) {
	truncated := TruncateToDay(time.Date(2024, 3, 10, 22, 15, 30, 999, time.FixedZone("BRT", -3*3600)))

	assert.Equal(t, time.UTC, truncated.Location())
	assert.Equal(t, 0, truncated.Hour())
	// 22h15 em BRT já é dia 11 em UTC
	assert.Equal(t, 11, truncated.Day())
}
