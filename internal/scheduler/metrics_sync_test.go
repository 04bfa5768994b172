package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/metrics-sync-api/internal/config"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
)

// blockingSyncer segura a execução até o canal release ser fechado, para
// simular uma sincronização longa
type blockingSyncer struct {
	started chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (s *blockingSyncer) RunSync(ctx context.Context, customerID *int64, today time.Time) (*domain.SyncRunResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	close(s.started)
	<-s.release

	return &domain.SyncRunResult{Success: true, RunID: "abc123"}, nil
}

func testAppConfig() *config.Config {
	return &config.Config{
		MetricsSync: config.MetricsSync{
			CronSchedule:  "0 2 * * *",
			RetentionDays: 90,
			Enabled:       false,
		},
	}
}

func TestMetricsSyncService_ExecucoesNaoSeSobrepoem(t *testing.T) {
	syncer := &blockingSyncer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	service := NewMetricsSyncService(syncer, testAppConfig())

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		result, err := service.TriggerManualSync(context.Background(), nil)
		assert.NoError(t, err)
		assert.True(t, result.Success)
	}()

	// Aguardar a primeira execução entrar em andamento
	<-syncer.started

	status := service.GetStatus()
	assert.True(t, status.Running)
	assert.NotNil(t, status.LastSyncStartedAt)

	// Segundo disparo enquanto a primeira execução está rodando
	result, err := service.TriggerManualSync(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSyncAlreadyRunning)
	assert.Nil(t, result)

	close(syncer.release)
	<-firstDone

	syncer.mu.Lock()
	assert.Equal(t, 1, syncer.calls)
	syncer.mu.Unlock()

	status = service.GetStatus()
	assert.False(t, status.Running)
	assert.NotNil(t, status.LastSyncCompletedAt)
	assert.Equal(t, "abc123", status.LastResult.RunID)
}

func TestMetricsSyncService_StatusInicial(t *testing.T) {
	syncer := &blockingSyncer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	service := NewMetricsSyncService(syncer, testAppConfig())

	status := service.GetStatus()
	assert.False(t, status.Running)
	assert.False(t, status.SchedulerEnabled)
	assert.Equal(t, "0 2 * * *", status.CronSchedule)
	assert.Equal(t, 90, status.RetentionDays)
	assert.Nil(t, status.LastSyncStartedAt)
	assert.Nil(t, status.LastSyncCompletedAt)
	assert.Nil(t, status.LastResult)
}
