package syncing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateSet(t *testing.T) {
	t.Run("AddRange inclui as duas pontas do intervalo", func(t *testing.T) {
		set := NewDateSet()
		set.AddRange(
			time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		)

		assert.Equal(t, 3, set.Len())
		assert.True(t, set.HasString("2024-03-10"))
		assert.True(t, set.HasString("2024-03-11"))
		assert.True(t, set.HasString("2024-03-12"))
	})

	t.Run("Add ignora o componente de horário", func(t *testing.T) {
		set := NewDateSet()
		set.Add(time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC))

		assert.True(t, set.HasString("2024-03-10"))
		assert.True(t, set.Has(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)))
	})

	t.Run("Union não duplica dias repetidos", func(t *testing.T) {
		a := NewDateSet()
		a.Add(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
		a.Add(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))

		b := NewDateSet()
		b.Add(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
		b.Add(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))

		a.Union(b)
		assert.Equal(t, 3, a.Len())
	})

	t.Run("Sorted devolve os dias em ordem crescente", func(t *testing.T) {
		set := NewDateSet()
		set.Add(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))
		set.Add(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
		set.Add(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))

		sorted := set.Sorted()
		assert.Len(t, sorted, 3)
		assert.True(t, sorted[0].Before(sorted[1]))
		assert.True(t, sorted[1].Before(sorted[2]))
	})
}
