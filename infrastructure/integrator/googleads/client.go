package googleads

import (
	"context"
	"net/http"
	"time"

	"github.com/vfg2006/metrics-sync-api/internal/config"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
)

// Integrator busca métricas diárias na API de relatórios do Google Ads.
// A consulta GAQL filtra por um único segments.date, então cada dia da
// lacuna vira uma chamada separada.
type Integrator struct {
	cfg        *config.Config
	httpClient *http.Client
}

func NewIntegrator(cfg *config.Config) *Integrator {
	return &Integrator{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (i *Integrator) Provider() domain.Provider {
	return domain.ProviderGoogleAds
}

func (i *Integrator) FetchMetrics(
	ctx context.Context,
	connection *domain.Connection,
	account *domain.PlatformAccount,
	request domain.FetchRequest,
) ([]domain.RawMetricRow, error) {
	rows := make([]domain.RawMetricRow, 0)

	for _, day := range request.Days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dayRows, err := i.searchDay(ctx, connection, account, day)
		if err != nil {
			return nil, err
		}

		rows = append(rows, dayRows...)
	}

	return rows, nil
}
