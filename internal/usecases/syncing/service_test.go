package syncing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	repomocks "github.com/vfg2006/metrics-sync-api/infrastructure/repository/mocks"
	"github.com/vfg2006/metrics-sync-api/internal/config"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
	"github.com/vfg2006/metrics-sync-api/internal/usecases/syncing/mocks"
	"go.uber.org/mock/gomock"
)

func testConfig() *config.Config {
	return &config.Config{
		MetricsSync: config.MetricsSync{
			RetentionDays:       5,
			RequestDelaySeconds: 0,
		},
	}
}

func usableConnection(id int64) *domain.Connection {
	return &domain.Connection{ID: id}
}

func rawRow(date, itemID string) domain.RawMetricRow {
	impressions := int64(100)
	return domain.RawMetricRow{
		Date:        date,
		ItemID:      itemID,
		ItemType:    string(domain.ItemTypeAd),
		Impressions: &impressions,
	}
}

type syncMocks struct {
	customerRepo        *repomocks.MockCustomerRepository
	platformAccountRepo *repomocks.MockPlatformAccountRepository
	connectionRepo      *repomocks.MockConnectionRepository
	metricRepo          *repomocks.MockMetricRepository
	connector           *mocks.MockConnector
}

func newSyncService(ctrl *gomock.Controller, provider domain.Provider) (Syncer, *syncMocks) {
	m := &syncMocks{
		customerRepo:        repomocks.NewMockCustomerRepository(ctrl),
		platformAccountRepo: repomocks.NewMockPlatformAccountRepository(ctrl),
		connectionRepo:      repomocks.NewMockConnectionRepository(ctrl),
		metricRepo:          repomocks.NewMockMetricRepository(ctrl),
		connector:           mocks.NewMockConnector(ctrl),
	}

	m.connector.EXPECT().Provider().Return(provider).AnyTimes()

	service := NewService(
		testConfig(),
		m.customerRepo,
		m.platformAccountRepo,
		m.connectionRepo,
		m.metricRepo,
		[]Connector{m.connector},
	)

	return service, m
}

func TestService_RunSync(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	horizonStart := today.AddDate(0, 0, -5)

	t.Run("Conta fria sincroniza o horizonte completo e descarta dias não pedidos", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service, m := newSyncService(ctrl, domain.ProviderFacebookAds)

		m.customerRepo.EXPECT().ListActive().Return([]*domain.Customer{{ID: 1}}, nil)
		m.platformAccountRepo.EXPECT().ListByCustomer(int64(1)).
			Return([]*domain.PlatformAccount{{ID: 10, CustomerID: 1, Provider: domain.ProviderFacebookAds}}, nil)
		m.connectionRepo.EXPECT().GetActiveByPlatformAccount(int64(10)).
			Return(usableConnection(100), nil)
		m.metricRepo.EXPECT().ListItemIDsSince(int64(10), horizonStart).
			Return([]string{}, nil)

		// O conector devolve um dia fora do horizonte, que deve ser descartado
		m.connector.EXPECT().
			FetchMetrics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]domain.RawMetricRow{
				rawRow("2024-03-10", "ad-1"),
				rawRow("2024-03-11", "ad-1"),
				rawRow("2024-02-01", "ad-1"),
			}, nil)

		m.connectionRepo.EXPECT().RecordSuccess(int64(100)).Return(nil)
		m.metricRepo.EXPECT().Upsert(gomock.Len(2)).Return(2, nil)
		m.metricRepo.EXPECT().DeleteBefore(horizonStart).Return(int64(7), nil)

		result, err := service.RunSync(context.Background(), nil, today)

		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.NotEmpty(t, result.RunID)
		assert.Equal(t, 1, result.CustomersProcessed)
		assert.Equal(t, 1, result.PlatformsProcessed)
		assert.Equal(t, 2, result.MetricsUpserted)
		assert.Equal(t, int64(7), result.MetricsPruned)
		assert.Equal(t, 0, result.ErrorsCount)
		assert.Equal(t, 0, result.ConnectionFailures)
	})

	t.Run("Linha malformada é descartada e contada como erro", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service, m := newSyncService(ctrl, domain.ProviderFacebookAds)

		m.customerRepo.EXPECT().ListActive().Return([]*domain.Customer{{ID: 1}}, nil)
		m.platformAccountRepo.EXPECT().ListByCustomer(int64(1)).
			Return([]*domain.PlatformAccount{{ID: 10, Provider: domain.ProviderFacebookAds}}, nil)
		m.connectionRepo.EXPECT().GetActiveByPlatformAccount(int64(10)).
			Return(usableConnection(100), nil)
		m.metricRepo.EXPECT().ListItemIDsSince(int64(10), horizonStart).
			Return([]string{}, nil)

		malformed := rawRow("2024-03-10", "ad-1")
		malformed.ItemType = "banner"

		m.connector.EXPECT().
			FetchMetrics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]domain.RawMetricRow{malformed, rawRow("2024-03-11", "ad-1")}, nil)

		m.connectionRepo.EXPECT().RecordSuccess(int64(100)).Return(nil)
		m.metricRepo.EXPECT().Upsert(gomock.Len(1)).Return(1, nil)
		m.metricRepo.EXPECT().DeleteBefore(horizonStart).Return(int64(0), nil)

		result, err := service.RunSync(context.Background(), nil, today)

		assert.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.MetricsUpserted)
		assert.Equal(t, 1, result.ErrorsCount)
		assert.Equal(t, 0, result.ConnectionFailures)
	})

	t.Run("Linha com data inválida é contada como malformada", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service, m := newSyncService(ctrl, domain.ProviderFacebookAds)

		m.customerRepo.EXPECT().ListActive().Return([]*domain.Customer{{ID: 1}}, nil)
		m.platformAccountRepo.EXPECT().ListByCustomer(int64(1)).
			Return([]*domain.PlatformAccount{{ID: 10, Provider: domain.ProviderFacebookAds}}, nil)
		m.connectionRepo.EXPECT().GetActiveByPlatformAccount(int64(10)).
			Return(usableConnection(100), nil)
		m.metricRepo.EXPECT().ListItemIDsSince(int64(10), horizonStart).
			Return([]string{}, nil)

		m.connector.EXPECT().
			FetchMetrics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]domain.RawMetricRow{
				rawRow("not-a-date", "ad-1"),
				rawRow("2024-03-11", "ad-1"),
			}, nil)

		m.connectionRepo.EXPECT().RecordSuccess(int64(100)).Return(nil)
		m.metricRepo.EXPECT().Upsert(gomock.Len(1)).Return(1, nil)
		m.metricRepo.EXPECT().DeleteBefore(horizonStart).Return(int64(0), nil)

		result, err := service.RunSync(context.Background(), nil, today)

		assert.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.MetricsUpserted)
		assert.Equal(t, 1, result.ErrorsCount)
		assert.Equal(t, 0, result.ConnectionFailures)
	})

	t.Run("Conta sem credencial utilizável conta como falha de conexão", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service, m := newSyncService(ctrl, domain.ProviderFacebookAds)

		m.customerRepo.EXPECT().ListActive().Return([]*domain.Customer{{ID: 1}}, nil)
		m.platformAccountRepo.EXPECT().ListByCustomer(int64(1)).
			Return([]*domain.PlatformAccount{{ID: 10, Provider: domain.ProviderFacebookAds}}, nil)
		m.connectionRepo.EXPECT().GetActiveByPlatformAccount(int64(10)).
			Return(nil, nil)
		m.metricRepo.EXPECT().DeleteBefore(horizonStart).Return(int64(0), nil)

		result, err := service.RunSync(context.Background(), nil, today)

		assert.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 0, result.ErrorsCount)
		assert.Equal(t, 1, result.ConnectionFailures)
		assert.Equal(t, 0, result.PlatformsProcessed)
		assert.Len(t, result.ErrorDetails, 1)
		assert.True(t, result.ErrorDetails[0].ConnectionFailure)
	})

	t.Run("Credencial expirada marca a conexão para reautenticação", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service, m := newSyncService(ctrl, domain.ProviderFacebookAds)

		m.customerRepo.EXPECT().ListActive().Return([]*domain.Customer{{ID: 1}}, nil)
		m.platformAccountRepo.EXPECT().ListByCustomer(int64(1)).
			Return([]*domain.PlatformAccount{{ID: 10, Provider: domain.ProviderFacebookAds}}, nil)
		m.connectionRepo.EXPECT().GetActiveByPlatformAccount(int64(10)).
			Return(usableConnection(100), nil)
		m.metricRepo.EXPECT().ListItemIDsSince(int64(10), horizonStart).
			Return([]string{}, nil)

		authErr := domain.NewConnectorError(
			domain.ProviderFacebookAds,
			domain.ConnectorErrAuthExpired,
			errors.New("token expirado"),
		)
		m.connector.EXPECT().
			FetchMetrics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, authErr)

		m.connectionRepo.EXPECT().RecordFailure(int64(100), gomock.Any(), true).Return(nil)
		m.metricRepo.EXPECT().DeleteBefore(horizonStart).Return(int64(0), nil)

		result, err := service.RunSync(context.Background(), nil, today)

		assert.NoError(t, err)
		assert.Equal(t, 1, result.ConnectionFailures)
		assert.Equal(t, 0, result.ErrorsCount)
	})

	t.Run("Falha em uma conta não interrompe as demais", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service, m := newSyncService(ctrl, domain.ProviderFacebookAds)

		m.customerRepo.EXPECT().ListActive().Return([]*domain.Customer{{ID: 1}}, nil)
		m.platformAccountRepo.EXPECT().ListByCustomer(int64(1)).
			Return([]*domain.PlatformAccount{
				{ID: 10, Provider: domain.ProviderFacebookAds},
				{ID: 11, Provider: domain.ProviderFacebookAds},
			}, nil)

		// Primeira conta falha com limite de requisições
		m.connectionRepo.EXPECT().GetActiveByPlatformAccount(int64(10)).
			Return(usableConnection(100), nil)
		m.metricRepo.EXPECT().ListItemIDsSince(int64(10), horizonStart).
			Return([]string{}, nil)
		rateErr := domain.NewConnectorError(
			domain.ProviderFacebookAds,
			domain.ConnectorErrRateLimited,
			errors.New("limite atingido"),
		)
		m.connector.EXPECT().
			FetchMetrics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, rateErr)
		m.connectionRepo.EXPECT().RecordFailure(int64(100), gomock.Any(), false).Return(nil)

		// Segunda conta sincroniza normalmente
		m.connectionRepo.EXPECT().GetActiveByPlatformAccount(int64(11)).
			Return(usableConnection(101), nil)
		m.metricRepo.EXPECT().ListItemIDsSince(int64(11), horizonStart).
			Return([]string{}, nil)
		m.connector.EXPECT().
			FetchMetrics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]domain.RawMetricRow{rawRow("2024-03-12", "ad-9")}, nil)
		m.connectionRepo.EXPECT().RecordSuccess(int64(101)).Return(nil)
		m.metricRepo.EXPECT().Upsert(gomock.Len(1)).Return(1, nil)

		m.metricRepo.EXPECT().DeleteBefore(horizonStart).Return(int64(0), nil)

		result, err := service.RunSync(context.Background(), nil, today)

		assert.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.ErrorsCount)
		assert.Equal(t, 0, result.ConnectionFailures)
		assert.Equal(t, 1, result.PlatformsProcessed)
		assert.Equal(t, 1, result.MetricsUpserted)
	})

	t.Run("Sincronização restrita a um cliente usa GetByID", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service, m := newSyncService(ctrl, domain.ProviderFacebookAds)

		customerID := int64(7)
		m.customerRepo.EXPECT().GetByID(customerID).Return(&domain.Customer{ID: 7}, nil)
		m.platformAccountRepo.EXPECT().ListByCustomer(int64(7)).
			Return([]*domain.PlatformAccount{}, nil)
		m.metricRepo.EXPECT().DeleteBefore(horizonStart).Return(int64(0), nil)

		result, err := service.RunSync(context.Background(), &customerID, today)

		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, result.CustomersProcessed)
	})

	t.Run("Cancelamento interrompe antes da próxima conta", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service, m := newSyncService(ctrl, domain.ProviderFacebookAds)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		m.customerRepo.EXPECT().ListActive().Return([]*domain.Customer{{ID: 1}}, nil)
		m.platformAccountRepo.EXPECT().ListByCustomer(int64(1)).
			Return([]*domain.PlatformAccount{{ID: 10, Provider: domain.ProviderFacebookAds}}, nil)

		result, err := service.RunSync(ctx, nil, today)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, result.PlatformsProcessed)
	})
}
