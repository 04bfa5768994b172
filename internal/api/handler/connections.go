package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/metrics-sync-api/infrastructure/repository"
	"github.com/vfg2006/metrics-sync-api/pkg/apiErrors"
)

// ListFailingConnections lista as conexões com falhas acumuladas ou
// marcadas para reautenticação, para o painel de saúde das contas
func ListFailingConnections(connectionRepo repository.ConnectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connections, err := connectionRepo.ListFailing()
		if err != nil {
			logrus.WithError(err).Error("Erro ao listar conexões com falha")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar conexões", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data":  connections,
			"total": len(connections),
		})
	}
}
