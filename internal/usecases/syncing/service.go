package syncing

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/metrics-sync-api/infrastructure/repository"
	"github.com/vfg2006/metrics-sync-api/internal/config"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
	"github.com/vfg2006/metrics-sync-api/pkg/utils"
)

// Syncer orquestra uma execução completa de sincronização de métricas
type Syncer interface {
	RunSync(ctx context.Context, customerID *int64, today time.Time) (*domain.SyncRunResult, error)
}

type Service struct {
	cfg                       *config.Config
	customerRepository        repository.CustomerRepository
	platformAccountRepository repository.PlatformAccountRepository
	connectionRepository      repository.ConnectionRepository
	metricRepository          repository.MetricRepository
	connectors                map[domain.Provider]Connector
	gapDetector               *GapDetector
}

func NewService(
	cfg *config.Config,
	customerRepo repository.CustomerRepository,
	platformAccountRepo repository.PlatformAccountRepository,
	connectionRepo repository.ConnectionRepository,
	metricRepo repository.MetricRepository,
	connectors []Connector,
) Syncer {
	byProvider := make(map[domain.Provider]Connector, len(connectors))
	for _, connector := range connectors {
		byProvider[connector.Provider()] = connector
	}

	return &Service{
		cfg:                       cfg,
		customerRepository:        customerRepo,
		platformAccountRepository: platformAccountRepo,
		connectionRepository:      connectionRepo,
		metricRepository:          metricRepo,
		connectors:                byProvider,
		gapDetector:               NewGapDetector(metricRepo, cfg.MetricsSync.RetentionDays),
	}
}

// RunSync processa os clientes sequencialmente, isolando falhas por conta
// de plataforma, e ao final remove as métricas fora da janela de retenção.
// A data de referência é injetada para permitir execuções determinísticas.
func (s *Service) RunSync(ctx context.Context, customerID *int64, today time.Time) (*domain.SyncRunResult, error) {
	start := time.Now()
	today = utils.TruncateToDay(today)

	runID, err := utils.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar identificador da execução: %w", err)
	}

	result := &domain.SyncRunResult{
		RunID:        runID,
		ErrorDetails: make([]domain.SyncError, 0),
	}

	logger := logrus.WithFields(logrus.Fields{
		"run_id": runID,
		"today":  today.Format(time.DateOnly),
	})
	logger.Info("Iniciando sincronização de métricas")

	customers, err := s.resolveCustomers(customerID)
	if err != nil {
		return nil, err
	}

	for _, customer := range customers {
		accounts, err := s.platformAccountRepository.ListByCustomer(customer.ID)
		if err != nil {
			logger.WithField("customer_id", customer.ID).
				Errorf("Erro ao listar contas de plataforma: %v", err)
			result.AddError(domain.SyncError{
				CustomerID: customer.ID,
				Message:    fmt.Sprintf("erro ao listar contas de plataforma: %v", err),
			})
			continue
		}

		for _, account := range accounts {
			// Cancelamento é verificado entre contas; uma conta em
			// andamento termina antes da execução parar
			if ctx.Err() != nil {
				logger.Warn("Sincronização cancelada, interrompendo")
				s.finish(result, start)
				return result, ctx.Err()
			}

			s.syncAccount(ctx, logger, customer, account, today, result)

			if s.cfg.MetricsSync.RequestDelaySeconds > 0 {
				time.Sleep(time.Duration(s.cfg.MetricsSync.RequestDelaySeconds) * time.Second)
			}
		}

		result.CustomersProcessed++
	}

	cutoff := today.AddDate(0, 0, -s.cfg.MetricsSync.RetentionDays)
	pruned, err := s.metricRepository.DeleteBefore(cutoff)
	if err != nil {
		logger.Errorf("Erro ao remover métricas fora da retenção: %v", err)
		result.AddError(domain.SyncError{
			Message: fmt.Sprintf("erro ao remover métricas fora da retenção: %v", err),
		})
	}
	result.MetricsPruned = pruned

	s.finish(result, start)

	logger.WithFields(logrus.Fields{
		"customers_processed": result.CustomersProcessed,
		"platforms_processed": result.PlatformsProcessed,
		"metrics_upserted":    result.MetricsUpserted,
		"metrics_pruned":      result.MetricsPruned,
		"errors_count":        result.ErrorsCount,
		"connection_failures": result.ConnectionFailures,
		"duration_seconds":    result.DurationSeconds,
	}).Info("Sincronização de métricas concluída")

	return result, nil
}

func (s *Service) resolveCustomers(customerID *int64) ([]*domain.Customer, error) {
	if customerID == nil {
		customers, err := s.customerRepository.ListActive()
		if err != nil {
			return nil, fmt.Errorf("erro ao listar clientes: %w", err)
		}
		return customers, nil
	}

	customer, err := s.customerRepository.GetByID(*customerID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar cliente %d: %w", *customerID, err)
	}

	return []*domain.Customer{customer}, nil
}

// syncAccount processa uma conta de plataforma do início ao fim. Qualquer
// falha é registrada no resultado sem interromper as demais contas.
func (s *Service) syncAccount(
	ctx context.Context,
	logger *logrus.Entry,
	customer *domain.Customer,
	account *domain.PlatformAccount,
	today time.Time,
	result *domain.SyncRunResult,
) {
	accountLogger := logger.WithFields(logrus.Fields{
		"customer_id":         customer.ID,
		"platform_account_id": account.ID,
		"provider":            account.Provider,
	})

	fail := func(message string, connectionFailure bool) {
		accountLogger.Error(message)
		result.AddError(domain.SyncError{
			CustomerID:        customer.ID,
			PlatformAccountID: account.ID,
			Provider:          account.Provider,
			Message:           message,
			ConnectionFailure: connectionFailure,
		})
	}

	connector, ok := s.connectors[account.Provider]
	if !ok {
		fail(fmt.Sprintf("nenhum conector registrado para a plataforma %s", account.Provider), false)
		return
	}

	connection, err := s.connectionRepository.GetActiveByPlatformAccount(account.ID)
	if err != nil {
		fail(fmt.Sprintf("erro ao buscar conexão: %v", err), false)
		return
	}

	if !connection.Usable() {
		fail("conta sem credencial utilizável; reautenticação necessária", true)
		return
	}

	gaps, err := s.gapDetector.DetectGaps(account.ID, today)
	if err != nil {
		fail(fmt.Sprintf("erro ao detectar lacunas: %v", err), false)
		return
	}

	request := PlanFetch(gaps)
	if request.IsEmpty() {
		accountLogger.Debug("Nenhuma lacuna a sincronizar")
		result.PlatformsProcessed++
		return
	}

	accountLogger.WithFields(logrus.Fields{
		"days":  len(request.Days),
		"since": request.Since.Format(time.DateOnly),
		"until": request.Until.Format(time.DateOnly),
	}).Info("Buscando métricas na plataforma")

	rows, err := connector.FetchMetrics(ctx, connection, account, request)
	if err != nil {
		s.handleFetchError(accountLogger, connection, err, fail)
		return
	}

	if err := s.connectionRepository.RecordSuccess(connection.ID); err != nil {
		accountLogger.Warnf("Erro ao registrar sucesso da conexão: %v", err)
	}

	records, malformed := s.normalizeRows(accountLogger, rows, gaps, account.ID)
	if malformed > 0 {
		fail(fmt.Sprintf("%d linha(s) malformada(s) descartada(s)", malformed), false)
	}

	if len(records) > 0 {
		upserted, err := s.metricRepository.Upsert(records)
		result.MetricsUpserted += upserted
		if err != nil {
			fail(fmt.Sprintf("erro ao gravar métricas: %v", err), false)
			return
		}
	}

	result.PlatformsProcessed++
}

// handleFetchError classifica o erro do conector: credencial expirada é
// tratada como falha de conexão e marca a conta para reautenticação;
// os demais erros contam como falha comum e incrementam o rastreamento
func (s *Service) handleFetchError(
	logger *logrus.Entry,
	connection *domain.Connection,
	err error,
	fail func(message string, connectionFailure bool),
) {
	connectorErr, ok := domain.AsConnectorError(err)
	if !ok {
		fail(fmt.Sprintf("erro ao buscar métricas: %v", err), false)
		return
	}

	needsReauth := connectorErr.Category == domain.ConnectorErrAuthExpired

	if recordErr := s.connectionRepository.RecordFailure(connection.ID, connectorErr.Error(), needsReauth); recordErr != nil {
		logger.Warnf("Erro ao registrar falha da conexão: %v", recordErr)
	}

	fail(fmt.Sprintf("erro ao buscar métricas: %v", connectorErr), needsReauth)
}

// normalizeRows converte as linhas brutas em registros prontos para
// upsert, descartando dias que não estavam nas lacunas pedidas e
// contando as linhas que não puderam ser interpretadas
func (s *Service) normalizeRows(
	logger *logrus.Entry,
	rows []domain.RawMetricRow,
	gaps DateSet,
	platformID int64,
) ([]*domain.MetricRecord, int) {
	records := make([]*domain.MetricRecord, 0, len(rows))
	malformed := 0

	for _, row := range rows {
		date, err := utils.ParseDate(row.Date)
		if err != nil {
			logger.Warnf("Linha descartada: data inválida %q", row.Date)
			malformed++
			continue
		}

		if !gaps.Has(*date) {
			// Plataformas com consulta por intervalo devolvem dias já
			// presentes no banco; só os dias pedidos são gravados
			continue
		}

		record, err := row.ToRecord(platformID)
		if err != nil {
			logger.Warnf("Linha descartada: %v", err)
			malformed++
			continue
		}

		records = append(records, record)
	}

	return records, malformed
}

func (s *Service) finish(result *domain.SyncRunResult, start time.Time) {
	result.Success = result.ErrorsCount == 0 && result.ConnectionFailures == 0
	result.DurationSeconds = utils.RoundWithTwoDecimalPlace(time.Since(start).Seconds())
}
