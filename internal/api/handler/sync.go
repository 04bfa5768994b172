package handler

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/metrics-sync-api/internal/scheduler"
	"github.com/vfg2006/metrics-sync-api/pkg/apiErrors"
)

type RunSyncRequest struct {
	CustomerID *int64 `json:"customer_id"`
}

// RunSync dispara manualmente uma sincronização de métricas e aguarda o
// resultado completo da execução
func RunSync(service *scheduler.MetricsSyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - RunSync")

		var req RunSyncRequest
		if r.Body != nil && r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
				return
			}
		}

		result, err := service.TriggerManualSync(r.Context(), req.CustomerID)
		if err != nil {
			if errors.Is(err, scheduler.ErrSyncAlreadyRunning) {
				apiErrors.WriteError(w, apiErrors.ErrSyncInProgress, "Sincronização já em andamento", nil)
				return
			}

			logrus.WithError(err).Error("Erro durante a sincronização manual")

			// A execução pode ter resultado parcial mesmo com erro
			if result == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao executar sincronização", nil)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// GetSyncStatus retorna o estado atual do agendador e o resumo da última execução
func GetSyncStatus(service *scheduler.MetricsSyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.GetStatus())
	}
}
