package syncing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/metrics-sync-api/infrastructure/repository/mocks"
	"go.uber.org/mock/gomock"
)

func TestGapDetector_DetectGaps(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	horizonStart := today.AddDate(0, 0, -90)

	// Todas as datas do horizonte, para simular uma conta sem lacunas
	fullHorizon := func() []time.Time {
		dates := make([]time.Time, 0, 91)
		for d := horizonStart; !d.After(today); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
		return dates
	}

	// Horizonte completo menos as datas informadas
	horizonWithout := func(missing ...time.Time) []time.Time {
		missingSet := NewDateSet()
		for _, m := range missing {
			missingSet.Add(m)
		}

		dates := make([]time.Time, 0, 91)
		for _, d := range fullHorizon() {
			if !missingSet.Has(d) {
				dates = append(dates, d)
			}
		}
		return dates
	}

	tests := []struct {
		name     string
		setup    func(repo *mocks.MockMetricRepository)
		validate func(t *testing.T, gaps DateSet, err error)
	}{
		{
			name: "Conta fria recebe o horizonte completo",
			setup: func(repo *mocks.MockMetricRepository) {
				repo.EXPECT().
					ListItemIDsSince(int64(10), horizonStart).
					Return([]string{}, nil)
			},
			validate: func(t *testing.T, gaps DateSet, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 91, gaps.Len())
				assert.True(t, gaps.Has(horizonStart))
				assert.True(t, gaps.Has(today))
			},
		},
		{
			name: "Conta sem lacunas reprocessa apenas ontem e hoje",
			setup: func(repo *mocks.MockMetricRepository) {
				repo.EXPECT().
					ListItemIDsSince(int64(10), horizonStart).
					Return([]string{"ad-1"}, nil)
				repo.EXPECT().
					ListDatesByItem(int64(10), "ad-1", horizonStart).
					Return(fullHorizon(), nil)
			},
			validate: func(t *testing.T, gaps DateSet, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 2, gaps.Len())
				assert.True(t, gaps.Has(today.AddDate(0, 0, -1)))
				assert.True(t, gaps.Has(today))
			},
		},
		{
			name: "Lacuna antiga de um ad-unit é detectada",
			setup: func(repo *mocks.MockMetricRepository) {
				repo.EXPECT().
					ListItemIDsSince(int64(10), horizonStart).
					Return([]string{"ad-1"}, nil)
				repo.EXPECT().
					ListDatesByItem(int64(10), "ad-1", horizonStart).
					Return(horizonWithout(today.AddDate(0, 0, -40)), nil)
			},
			validate: func(t *testing.T, gaps DateSet, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 3, gaps.Len())
				assert.True(t, gaps.Has(today.AddDate(0, 0, -40)))
				assert.True(t, gaps.Has(today.AddDate(0, 0, -1)))
				assert.True(t, gaps.Has(today))
			},
		},
		{
			name: "Lacunas de ad-units diferentes são unidas",
			setup: func(repo *mocks.MockMetricRepository) {
				repo.EXPECT().
					ListItemIDsSince(int64(10), horizonStart).
					Return([]string{"ad-1", "ad-2"}, nil)
				repo.EXPECT().
					ListDatesByItem(int64(10), "ad-1", horizonStart).
					Return(horizonWithout(today.AddDate(0, 0, -30)), nil)
				repo.EXPECT().
					ListDatesByItem(int64(10), "ad-2", horizonStart).
					Return(horizonWithout(today.AddDate(0, 0, -20)), nil)
			},
			validate: func(t *testing.T, gaps DateSet, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 4, gaps.Len())
				assert.True(t, gaps.Has(today.AddDate(0, 0, -30)))
				assert.True(t, gaps.Has(today.AddDate(0, 0, -20)))
			},
		},
		{
			name: "Erro ao listar ad-units é propagado",
			setup: func(repo *mocks.MockMetricRepository) {
				repo.EXPECT().
					ListItemIDsSince(int64(10), horizonStart).
					Return(nil, errors.New("conexão recusada"))
			},
			validate: func(t *testing.T, gaps DateSet, err error) {
				assert.Error(t, err)
				assert.Nil(t, gaps)
			},
		},
		{
			name: "Erro ao listar datas de um ad-unit é propagado",
			setup: func(repo *mocks.MockMetricRepository) {
				repo.EXPECT().
					ListItemIDsSince(int64(10), horizonStart).
					Return([]string{"ad-1"}, nil)
				repo.EXPECT().
					ListDatesByItem(int64(10), "ad-1", horizonStart).
					Return(nil, errors.New("timeout"))
			},
			validate: func(t *testing.T, gaps DateSet, err error) {
				assert.Error(t, err)
				assert.Nil(t, gaps)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mocks.NewMockMetricRepository(ctrl)
			tt.setup(repo)

			detector := NewGapDetector(repo, 90)
			gaps, err := detector.DetectGaps(10, today)
			tt.validate(t, gaps, err)
		})
	}
}

func TestGapDetector_DetectGaps_HorarioEhIgnorado(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// A data de referência com horário deve ser truncada para meia-noite UTC
	todayWithTime := time.Date(2024, 3, 15, 17, 45, 12, 0, time.UTC)
	horizonStart := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	repo := mocks.NewMockMetricRepository(ctrl)
	repo.EXPECT().
		ListItemIDsSince(int64(10), horizonStart).
		Return([]string{}, nil)

	detector := NewGapDetector(repo, 5)
	gaps, err := detector.DetectGaps(10, todayWithTime)

	assert.NoError(t, err)
	assert.Equal(t, 6, gaps.Len())
	assert.True(t, gaps.HasString("2024-03-15"))
}
