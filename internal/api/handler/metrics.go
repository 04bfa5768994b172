package handler

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/metrics-sync-api/infrastructure/repository"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
	"github.com/vfg2006/metrics-sync-api/pkg/apiErrors"
	"github.com/vfg2006/metrics-sync-api/pkg/utils"
)

const (
	defaultMetricsLimit = 100
	maxMetricsLimit     = 1000
)

type ListMetricsResponse struct {
	Data   []*domain.MetricRecord `json:"data"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// ListMetrics lista as métricas armazenadas com filtros de data,
// plataforma, cliente e tipo de item
func ListMetrics(metricRepo repository.MetricRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseMetricFilters(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		metrics, total, err := metricRepo.List(filters)
		if err != nil {
			logrus.WithError(err).Error("Erro ao listar métricas")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar métricas", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ListMetricsResponse{
			Data:   metrics,
			Total:  total,
			Limit:  filters.Limit,
			Offset: filters.Offset,
		})
	}
}

func parseMetricFilters(r *http.Request) (*domain.MetricFilters, error) {
	query := r.URL.Query()

	filters := &domain.MetricFilters{
		Limit: defaultMetricsLimit,
	}

	if value := query.Get("start_date"); value != "" {
		date, err := utils.ParseDate(value)
		if err != nil {
			return nil, err
		}
		filters.StartDate = date
	}

	if value := query.Get("end_date"); value != "" {
		date, err := utils.ParseDate(value)
		if err != nil {
			return nil, err
		}
		filters.EndDate = date
	}

	if value := query.Get("platform_id"); value != "" {
		platformID, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, err
		}
		filters.PlatformID = &platformID
	}

	if value := query.Get("customer_id"); value != "" {
		customerID, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, err
		}
		filters.CustomerID = &customerID
	}

	if value := query.Get("item_type"); value != "" {
		itemType, err := domain.ParseItemType(value)
		if err != nil {
			return nil, err
		}
		filters.ItemType = &itemType
	}

	if value := query.Get("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		if limit > 0 && limit <= maxMetricsLimit {
			filters.Limit = limit
		}
	}

	if value := query.Get("offset"); value != "" {
		offset, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		if offset > 0 {
			filters.Offset = offset
		}
	}

	return filters, nil
}
