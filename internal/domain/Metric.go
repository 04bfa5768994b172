package domain

import (
	"fmt"
	"time"
)

// ItemType indica a granularidade do item de anúncio que gerou a métrica
type ItemType string

const (
	ItemTypeAd      ItemType = "ad"
	ItemTypeAdGroup ItemType = "ad_group"
)

// ParseItemType valida e converte o tipo de item reportado pela plataforma
func ParseItemType(s string) (ItemType, error) {
	switch ItemType(s) {
	case ItemTypeAd, ItemTypeAdGroup:
		return ItemType(s), nil
	default:
		return "", fmt.Errorf("tipo de item desconhecido: %q", s)
	}
}

// MetricRecord representa uma linha de métricas diárias armazenada no banco.
// A tupla (Date, ItemID, PlatformID) é única.
type MetricRecord struct {
	ID         int64     `json:"id"`
	Date       time.Time `json:"metric_date"`
	ItemID     string    `json:"item_id"`
	PlatformID int64     `json:"platform_id"`
	ItemType   ItemType  `json:"item_type"`

	// Campos numéricos são opcionais pois variam por plataforma
	Impressions *int64   `json:"impressions"`
	Clicks      *int64   `json:"clicks"`
	Leads       *int64   `json:"leads"`
	Reach       *int64   `json:"reach"`
	Conversions *float64 `json:"conversions"`
	Spent       *float64 `json:"spent"`
	ConvValue   *float64 `json:"conv_value"`
	CPA         *float64 `json:"cpa"`
	CVR         *float64 `json:"cvr"`
	CTR         *float64 `json:"ctr"`
	CPC         *float64 `json:"cpc"`
	CPM         *float64 `json:"cpm"`
	CPL         *float64 `json:"cpl"`
	Frequency   *float64 `json:"frequency"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RawMetricRow é uma linha bruta retornada por um conector de plataforma,
// ainda com a data no formato texto reportado pela API
type RawMetricRow struct {
	Date     string `json:"date"`
	ItemID   string `json:"item_id"`
	ItemType string `json:"item_type"`

	Impressions *int64   `json:"impressions"`
	Clicks      *int64   `json:"clicks"`
	Leads       *int64   `json:"leads"`
	Reach       *int64   `json:"reach"`
	Conversions *float64 `json:"conversions"`
	Spent       *float64 `json:"spent"`
	ConvValue   *float64 `json:"conv_value"`
	CPA         *float64 `json:"cpa"`
	CVR         *float64 `json:"cvr"`
	CTR         *float64 `json:"ctr"`
	CPC         *float64 `json:"cpc"`
	CPM         *float64 `json:"cpm"`
	CPL         *float64 `json:"cpl"`
	Frequency   *float64 `json:"frequency"`
}

// ToRecord converte a linha bruta em um MetricRecord pronto para upsert
func (r RawMetricRow) ToRecord(platformID int64) (*MetricRecord, error) {
	date, err := time.Parse(time.DateOnly, r.Date)
	if err != nil {
		return nil, fmt.Errorf("data inválida %q: %w", r.Date, err)
	}

	if r.ItemID == "" {
		return nil, fmt.Errorf("linha sem identificador de item para a data %s", r.Date)
	}

	itemType, err := ParseItemType(r.ItemType)
	if err != nil {
		return nil, err
	}

	return &MetricRecord{
		Date:        date,
		ItemID:      r.ItemID,
		PlatformID:  platformID,
		ItemType:    itemType,
		Impressions: r.Impressions,
		Clicks:      r.Clicks,
		Leads:       r.Leads,
		Reach:       r.Reach,
		Conversions: r.Conversions,
		Spent:       r.Spent,
		ConvValue:   r.ConvValue,
		CPA:         r.CPA,
		CVR:         r.CVR,
		CTR:         r.CTR,
		CPC:         r.CPC,
		CPM:         r.CPM,
		CPL:         r.CPL,
		Frequency:   r.Frequency,
	}, nil
}

// MetricFilters define os filtros aceitos pela listagem de métricas
type MetricFilters struct {
	StartDate  *time.Time
	EndDate    *time.Time
	PlatformID *int64
	CustomerID *int64
	ItemType   *ItemType
	Limit      int
	Offset     int
}

// FetchRequest descreve o que buscar em uma plataforma: o intervalo
// contíguo mais justo [Since, Until] e a lista ordenada de dias desejados
type FetchRequest struct {
	Since time.Time
	Until time.Time
	Days  []time.Time
}

// IsEmpty informa se não há nada a buscar
func (r FetchRequest) IsEmpty() bool {
	return len(r.Days) == 0
}
