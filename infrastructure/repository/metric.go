package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/vfg2006/metrics-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
)

const (
	metricsTable = "metrics"

	// Limite de linhas por INSERT para não estourar o número de placeholders
	upsertBatchSize = 100
)

var metricColumns = []string{
	"metric_date", "item_id", "platform_id", "item_type",
	"impressions", "clicks", "leads", "reach", "conversions",
	"spent", "conv_value", "cpa", "cvr", "ctr", "cpc", "cpm", "cpl", "frequency",
}

type MetricRepository interface {
	Upsert(records []*domain.MetricRecord) (int, error)
	ListItemIDsSince(platformID int64, since time.Time) ([]string, error)
	ListDatesByItem(platformID int64, itemID string, since time.Time) ([]time.Time, error)
	List(filters *domain.MetricFilters) ([]*domain.MetricRecord, int, error)
	DeleteBefore(cutoff time.Time) (int64, error)
}

type metricRepository struct {
	conn *postgres.Connection
}

func NewMetricRepository(conn *postgres.Connection) MetricRepository {
	return &metricRepository{
		conn: conn,
	}
}

// Upsert grava as métricas em lotes. Cada linha é resolvida atomicamente
// pelo banco via ON CONFLICT na tupla (metric_date, item_id, platform_id),
// nunca por leitura prévia, para tolerar execuções sobrepostas.
func (r *metricRepository) Upsert(records []*domain.MetricRecord) (int, error) {
	total := 0

	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}

		n, err := r.upsertBatch(records[start:end])
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

func (r *metricRepository) upsertBatch(records []*domain.MetricRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	builder := squirrel.StatementBuilder.
		Insert(metricsTable).
		Columns(metricColumns...)

	for _, record := range records {
		builder = builder.Values(
			record.Date.Format(time.DateOnly),
			record.ItemID,
			record.PlatformID,
			string(record.ItemType),
			record.Impressions,
			record.Clicks,
			record.Leads,
			record.Reach,
			record.Conversions,
			record.Spent,
			record.ConvValue,
			record.CPA,
			record.CVR,
			record.CTR,
			record.CPC,
			record.CPM,
			record.CPL,
			record.Frequency,
		)
	}

	builder = builder.Suffix(`
		ON CONFLICT (metric_date, item_id, platform_id) DO UPDATE SET
			item_type = EXCLUDED.item_type,
			impressions = EXCLUDED.impressions,
			clicks = EXCLUDED.clicks,
			leads = EXCLUDED.leads,
			reach = EXCLUDED.reach,
			conversions = EXCLUDED.conversions,
			spent = EXCLUDED.spent,
			conv_value = EXCLUDED.conv_value,
			cpa = EXCLUDED.cpa,
			cvr = EXCLUDED.cvr,
			ctr = EXCLUDED.ctr,
			cpc = EXCLUDED.cpc,
			cpm = EXCLUDED.cpm,
			cpl = EXCLUDED.cpl,
			frequency = EXCLUDED.frequency,
			updated_at = NOW()
	`).PlaceholderFormat(squirrel.Dollar)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("erro ao construir a query: %w", err)
	}

	result, err := r.conn.Exec(query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return 0, fmt.Errorf("erro no banco de dados: %w (código: %s)", pqErr, pqErr.Code)
		}
		return 0, fmt.Errorf("erro ao executar a query: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("erro ao obter número de linhas afetadas: %w", err)
	}

	return int(rowsAffected), nil
}

// ListItemIDsSince retorna os ad-units distintos que possuem qualquer
// registro para a conta desde a data informada
func (r *metricRepository) ListItemIDsSince(platformID int64, since time.Time) ([]string, error) {
	query, args, err := squirrel.
		Select("DISTINCT item_id").
		From(metricsTable).
		Where(squirrel.Eq{"platform_id": platformID}).
		Where(squirrel.GtOrEq{"metric_date": since.Format(time.DateOnly)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	itemIDs := make([]string, 0)
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			return nil, fmt.Errorf("erro ao escanear item_id: %w", err)
		}
		itemIDs = append(itemIDs, itemID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return itemIDs, nil
}

// ListDatesByItem retorna as datas distintas já registradas para um
// ad-unit da conta desde a data informada
func (r *metricRepository) ListDatesByItem(platformID int64, itemID string, since time.Time) ([]time.Time, error) {
	query, args, err := squirrel.
		Select("DISTINCT metric_date").
		From(metricsTable).
		Where(squirrel.Eq{"platform_id": platformID, "item_id": itemID}).
		Where(squirrel.GtOrEq{"metric_date": since.Format(time.DateOnly)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("erro ao escanear data: %w", err)
		}
		dates = append(dates, date)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return dates, nil
}

func (r *metricRepository) List(filters *domain.MetricFilters) ([]*domain.MetricRecord, int, error) {
	base := squirrel.
		Select("m.id, m.metric_date, m.item_id, m.platform_id, m.item_type, " +
			"m.impressions, m.clicks, m.leads, m.reach, m.conversions, " +
			"m.spent, m.conv_value, m.cpa, m.cvr, m.ctr, m.cpc, m.cpm, m.cpl, m.frequency, " +
			"m.created_at, m.updated_at").
		From(metricsTable + " m")

	countBase := squirrel.Select("COUNT(*)").From(metricsTable + " m")

	applyFilters := func(b squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filters.CustomerID != nil {
			b = b.Join("platform_accounts pa ON pa.id = m.platform_id").
				Where(squirrel.Eq{"pa.customer_id": *filters.CustomerID})
		}
		if filters.StartDate != nil {
			b = b.Where(squirrel.GtOrEq{"m.metric_date": filters.StartDate.Format(time.DateOnly)})
		}
		if filters.EndDate != nil {
			b = b.Where(squirrel.LtOrEq{"m.metric_date": filters.EndDate.Format(time.DateOnly)})
		}
		if filters.PlatformID != nil {
			b = b.Where(squirrel.Eq{"m.platform_id": *filters.PlatformID})
		}
		if filters.ItemType != nil {
			b = b.Where(squirrel.Eq{"m.item_type": string(*filters.ItemType)})
		}
		return b
	}

	base = applyFilters(base).
		OrderBy("m.metric_date DESC", "m.platform_id", "m.item_id").
		Limit(uint64(filters.Limit)).
		Offset(uint64(filters.Offset))

	query, args, err := base.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	metrics := make([]*domain.MetricRecord, 0)
	for rows.Next() {
		metric, err := r.scanMetric(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("erro ao escanear métrica: %w", err)
		}
		metrics = append(metrics, metric)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	countQuery, countArgs, err := applyFilters(countBase).PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("erro ao construir a query de contagem: %w", err)
	}

	var total int
	if err := r.conn.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("erro ao contar métricas: %w", err)
	}

	return metrics, total, nil
}

// DeleteBefore remove as métricas anteriores à data de corte da retenção
func (r *metricRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	query, args, err := squirrel.
		Delete(metricsTable).
		Where(squirrel.Lt{"metric_date": cutoff.Format(time.DateOnly)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("erro ao construir a query: %w", err)
	}

	result, err := r.conn.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("erro ao executar a query: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("erro ao obter número de linhas afetadas: %w", err)
	}

	return rowsAffected, nil
}

func (r *metricRepository) scanMetric(rows *sql.Rows) (*domain.MetricRecord, error) {
	metric := &domain.MetricRecord{}
	var itemType string

	err := rows.Scan(
		&metric.ID,
		&metric.Date,
		&metric.ItemID,
		&metric.PlatformID,
		&itemType,
		&metric.Impressions,
		&metric.Clicks,
		&metric.Leads,
		&metric.Reach,
		&metric.Conversions,
		&metric.Spent,
		&metric.ConvValue,
		&metric.CPA,
		&metric.CVR,
		&metric.CTR,
		&metric.CPC,
		&metric.CPM,
		&metric.CPL,
		&metric.Frequency,
		&metric.CreatedAt,
		&metric.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	metric.ItemType = domain.ItemType(itemType)
	return metric, nil
}
