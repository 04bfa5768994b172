package facebook

import (
	"context"
	"net/http"
	"time"

	"github.com/vfg2006/metrics-sync-api/internal/config"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
)

// Integrator busca métricas diárias de anúncios na Graph API do Facebook.
// A plataforma aceita consultas por intervalo com quebra diária, então as
// lacunas são cobertas por uma única chamada paginada.
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
	return domain.ProviderFacebookAds
}

func (i *Integrator) FetchMetrics(
	ctx context.Context,
	connection *domain.Connection,
	account *domain.PlatformAccount,
	request domain.FetchRequest,
) ([]domain.RawMetricRow, error) {
	rows := make([]domain.RawMetricRow, 0)

	adRows, err := i.fetchInsights(ctx, connection, account, request, "ad")
	if err != nil {
		return nil, err
	}
	rows = append(rows, adRows...)

	groupRows, err := i.fetchInsights(ctx, connection, account, request, "adset")
	if err != nil {
		return nil, err
	}
	rows = append(rows, groupRows...)

	return rows, nil
}
