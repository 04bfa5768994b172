package syncing

import (
	"context"

	"github.com/vfg2006/metrics-sync-api/internal/domain"
)

// Connector abstrai a busca de métricas diárias em uma plataforma de
// anúncios. Implementações vivem em infrastructure/integrator e decidem
// sozinhas se consultam por intervalo ou dia a dia a partir da requisição.
type Connector interface {
	Provider() domain.Provider

	FetchMetrics(
		ctx context.Context,
		connection *domain.Connection,
		account *domain.PlatformAccount,
		request domain.FetchRequest,
	) ([]domain.RawMetricRow, error)
}
