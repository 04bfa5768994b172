package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/metrics-sync-api/internal/config"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
	"github.com/vfg2006/metrics-sync-api/internal/usecases/syncing"
)

// MetricsSyncConfig representa a configuração do agendador de sincronização
type MetricsSyncConfig struct {
	CronSchedule  string
	RetentionDays int
	SyncEnabled   bool
}

// MetricsSyncService gerencia o agendamento e a execução manual da
// sincronização de métricas. Execuções nunca se sobrepõem: um disparo
// enquanto outra execução está em andamento é rejeitado.
type MetricsSyncService struct {
	scheduler           *gocron.Scheduler
	config              MetricsSyncConfig
	syncer              syncing.Syncer
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastResult          *domain.SyncRunResult
}

// ErrSyncAlreadyRunning indica que já existe uma sincronização em andamento
var ErrSyncAlreadyRunning = fmt.Errorf("sincronização já em andamento")

func NewMetricsSyncService(syncer syncing.Syncer, appConfig *config.Config) *MetricsSyncService {
	syncConfig := MetricsSyncConfig{
		CronSchedule:  appConfig.MetricsSync.CronSchedule,
		RetentionDays: appConfig.MetricsSync.RetentionDays,
		SyncEnabled:   appConfig.MetricsSync.Enabled,
	}

	scheduler := gocron.NewScheduler(time.Local)

	logrus.WithFields(logrus.Fields{
		"cron_schedule":  syncConfig.CronSchedule,
		"retention_days": syncConfig.RetentionDays,
		"sync_enabled":   syncConfig.SyncEnabled,
	}).Info("Configuração do agendador de sincronização de métricas carregada")

	return &MetricsSyncService{
		scheduler:   scheduler,
		config:      syncConfig,
		syncer:      syncer,
		syncRunning: false,
	}
}

// Start inicia o agendador
func (s *MetricsSyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Sincronização agendada de métricas desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de sincronização de métricas")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		if _, err := s.runSync(ctx, nil); err != nil {
			logrus.WithError(err).Warn("Execução agendada não iniciada")
		}
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar sincronização de métricas: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de sincronização de métricas")
		s.scheduler.Stop()
	}()

	return nil
}

// TriggerManualSync dispara uma execução manual, opcionalmente restrita a
// um cliente. Retorna ErrSyncAlreadyRunning se houver execução em andamento.
func (s *MetricsSyncService) TriggerManualSync(ctx context.Context, customerID *int64) (*domain.SyncRunResult, error) {
	return s.runSync(ctx, customerID)
}

func (s *MetricsSyncService) runSync(ctx context.Context, customerID *int64) (*domain.SyncRunResult, error) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Sincronização de métricas já em andamento, ignorando disparo")
		return nil, ErrSyncAlreadyRunning
	}
	s.syncRunning = true
	s.lastSyncStartedAt = time.Now()
	s.syncMutex.Unlock()

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.lastSyncCompletedAt = time.Now()
		s.syncMutex.Unlock()
	}()

	result, err := s.syncer.RunSync(ctx, customerID, time.Now())
	if result != nil {
		s.syncMutex.Lock()
		s.lastResult = result
		s.syncMutex.Unlock()
	}
	if err != nil {
		logrus.WithError(err).Error("Sincronização de métricas encerrada com erro")
		return result, err
	}

	return result, nil
}

// SyncStatus resume o estado atual do agendador para a API
type SyncStatus struct {
	Running             bool                  `json:"running"`
	SchedulerEnabled    bool                  `json:"scheduler_enabled"`
	CronSchedule        string                `json:"cron_schedule"`
	RetentionDays       int                   `json:"retention_days"`
	LastSyncStartedAt   *time.Time            `json:"last_sync_started_at,omitempty"`
	LastSyncCompletedAt *time.Time            `json:"last_sync_completed_at,omitempty"`
	LastResult          *domain.SyncRunResult `json:"last_result,omitempty"`
}

// GetStatus retorna o estado atual da sincronização
func (s *MetricsSyncService) GetStatus() SyncStatus {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	status := SyncStatus{
		Running:          s.syncRunning,
		SchedulerEnabled: s.config.SyncEnabled,
		CronSchedule:     s.config.CronSchedule,
		RetentionDays:    s.config.RetentionDays,
		LastResult:       s.lastResult,
	}

	if !s.lastSyncStartedAt.IsZero() {
		startedAt := s.lastSyncStartedAt
		status.LastSyncStartedAt = &startedAt
	}

	if !s.lastSyncCompletedAt.IsZero() {
		completedAt := s.lastSyncCompletedAt
		status.LastSyncCompletedAt = &completedAt
	}

	return status
}
