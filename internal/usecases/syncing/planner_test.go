package syncing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanFetch(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("Conjunto vazio gera requisição vazia", func(t *testing.T) {
		request := PlanFetch(NewDateSet())
		assert.True(t, request.IsEmpty())
		assert.Empty(t, request.Days)
	})

	t.Run("Dias esparsos geram o intervalo contíguo mais justo", func(t *testing.T) {
		gaps := NewDateSet()
		gaps.Add(day(5))
		gaps.Add(day(1))
		gaps.Add(day(2))

		request := PlanFetch(gaps)

		assert.False(t, request.IsEmpty())
		assert.Equal(t, day(1), request.Since)
		assert.Equal(t, day(5), request.Until)
		assert.Equal(t, []time.Time{day(1), day(2), day(5)}, request.Days)
	})

	t.Run("Dia único gera intervalo de um dia", func(t *testing.T) {
		gaps := NewDateSet()
		gaps.Add(day(7))

		request := PlanFetch(gaps)

		assert.Equal(t, day(7), request.Since)
		assert.Equal(t, day(7), request.Until)
		assert.Len(t, request.Days, 1)
	})
}
