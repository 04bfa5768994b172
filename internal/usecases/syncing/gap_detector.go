package syncing

import (
	"fmt"
	"time"

	"github.com/vfg2006/metrics-sync-api/infrastructure/repository"
	"github.com/vfg2006/metrics-sync-api/pkg/utils"
)

// GapDetector identifica, por conta de plataforma, os dias do horizonte de
// retenção que ainda não possuem métricas armazenadas
type GapDetector struct {
	metricRepository repository.MetricRepository
	retentionDays    int
}

func NewGapDetector(metricRepo repository.MetricRepository, retentionDays int) *GapDetector {
	return &GapDetector{
		metricRepository: metricRepo,
		retentionDays:    retentionDays,
	}
}

// DetectGaps calcula o conjunto de dias a buscar para uma conta.
//
// Conta fria (nenhum registro no horizonte) recebe o horizonte inteiro.
// Conta com histórico recebe a união das datas faltantes de cada ad-unit.
// Ontem e hoje entram sempre, pois as plataformas revisam números recentes.
//
// Erros de leitura do banco são propagados: um horizonte vazio por falha
// de consulta faria a conta parecer completa e esconderia lacunas.
func (d *GapDetector) DetectGaps(platformID int64, today time.Time) (DateSet, error) {
	today = utils.TruncateToDay(today)
	horizonStart := today.AddDate(0, 0, -d.retentionDays)

	gaps := NewDateSet()

	itemIDs, err := d.metricRepository.ListItemIDsSince(platformID, horizonStart)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar ad-units da conta %d: %w", platformID, err)
	}

	if len(itemIDs) == 0 {
		// Conta fria: backfill completo do horizonte
		gaps.AddRange(horizonStart, today)
		return gaps, nil
	}

	horizon := NewDateSet()
	horizon.AddRange(horizonStart, today)

	for _, itemID := range itemIDs {
		stored, err := d.metricRepository.ListDatesByItem(platformID, itemID, horizonStart)
		if err != nil {
			return nil, fmt.Errorf("erro ao listar datas do ad-unit %s: %w", itemID, err)
		}

		storedSet := NewDateSet()
		for _, date := range stored {
			storedSet.Add(date)
		}

		for date := range horizon {
			if !storedSet.HasString(date) {
				gaps[date] = struct{}{}
			}
		}
	}

	// Dias recentes sempre são reprocessados, mesmo quando já existem
	gaps.Add(today.AddDate(0, 0, -1))
	gaps.Add(today)

	return gaps, nil
}
