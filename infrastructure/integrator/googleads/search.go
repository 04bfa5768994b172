package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
	"github.com/vfg2006/metrics-sync-api/pkg/utils"
)

const adGroupQuery = `
	SELECT ad_group.id, segments.date,
		metrics.impressions, metrics.clicks, metrics.cost_micros,
		metrics.conversions, metrics.conversions_value, metrics.ctr,
		metrics.average_cpc, metrics.average_cpm
	FROM ad_group
	WHERE segments.date = '%s'`

const adQuery = `
	SELECT ad_group_ad.ad.id, segments.date,
		metrics.impressions, metrics.clicks, metrics.cost_micros,
		metrics.conversions, metrics.conversions_value, metrics.ctr,
		metrics.average_cpc, metrics.average_cpm
	FROM ad_group_ad
	WHERE segments.date = '%s'`

type searchRequest struct {
	Query string `json:"query"`
}

// searchChunk é um bloco da resposta do searchStream
type searchChunk struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	AdGroup *struct {
		ID string `json:"id"`
	} `json:"adGroup"`
	AdGroupAd *struct {
		Ad struct {
			ID string `json:"id"`
		} `json:"ad"`
	} `json:"adGroupAd"`
	Segments struct {
		Date string `json:"date"`
	} `json:"segments"`
	Metrics struct {
		Impressions      string  `json:"impressions"`
		Clicks           string  `json:"clicks"`
		CostMicros       string  `json:"costMicros"`
		Conversions      float64 `json:"conversions"`
		ConversionsValue float64 `json:"conversionsValue"`
		CTR              float64 `json:"ctr"`
		AverageCPC       float64 `json:"averageCpc"`
		AverageCPM       float64 `json:"averageCpm"`
	} `json:"metrics"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (i *Integrator) searchDay(
	ctx context.Context,
	connection *domain.Connection,
	account *domain.PlatformAccount,
	day time.Time,
) ([]domain.RawMetricRow, error) {
	date := day.Format(time.DateOnly)
	rows := make([]domain.RawMetricRow, 0)

	groupResults, err := i.search(ctx, connection, account, fmt.Sprintf(adGroupQuery, date))
	if err != nil {
		return nil, err
	}
	for _, result := range groupResults {
		rows = append(rows, result.toRawRow(domain.ItemTypeAdGroup))
	}

	adResults, err := i.search(ctx, connection, account, fmt.Sprintf(adQuery, date))
	if err != nil {
		return nil, err
	}
	for _, result := range adResults {
		rows = append(rows, result.toRawRow(domain.ItemTypeAd))
	}

	return rows, nil
}

func (i *Integrator) search(
	ctx context.Context,
	connection *domain.Connection,
	account *domain.PlatformAccount,
	query string,
) ([]searchResult, error) {
	endpoint := fmt.Sprintf("%s/customers/%s/googleAds:searchStream", i.cfg.GoogleAds.URL, account.ExternalID)

	payload, err := json.Marshal(searchRequest{Query: query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+connection.AccessToken)
	req.Header.Set("developer-token", i.cfg.GoogleAds.DeveloperToken)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderGoogleAds, domain.ConnectorErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderGoogleAds, domain.ConnectorErrTransientNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, i.classifyError(resp.StatusCode, body)
	}

	var chunks []searchChunk
	if err := json.Unmarshal(body, &chunks); err != nil {
		logrus.WithError(err).Error("Erro ao decodificar JSON do Google Ads")
		return nil, domain.NewConnectorError(domain.ProviderGoogleAds, domain.ConnectorErrMalformedResponse, err)
	}

	results := make([]searchResult, 0)
	for _, chunk := range chunks {
		results = append(results, chunk.Results...)
	}

	return results, nil
}

func (i *Integrator) classifyError(statusCode int, body []byte) error {
	var response apiError
	_ = json.Unmarshal(body, &response)

	message := fmt.Errorf("status %d do Google Ads", statusCode)
	if response.Error.Message != "" {
		message = fmt.Errorf("status %d do Google Ads: %s", statusCode, response.Error.Message)
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return domain.NewConnectorError(domain.ProviderGoogleAds, domain.ConnectorErrAuthExpired, message)
	case statusCode == http.StatusTooManyRequests:
		return domain.NewConnectorError(domain.ProviderGoogleAds, domain.ConnectorErrRateLimited, message)
	case statusCode >= http.StatusInternalServerError:
		return domain.NewConnectorError(domain.ProviderGoogleAds, domain.ConnectorErrTransientNetwork, message)
	default:
		return domain.NewConnectorError(domain.ProviderGoogleAds, domain.ConnectorErrMalformedResponse, message)
	}
}

func (r searchResult) toRawRow(itemType domain.ItemType) domain.RawMetricRow {
	row := domain.RawMetricRow{
		Date:        r.Segments.Date,
		ItemType:    string(itemType),
		Impressions: parseInt(r.Metrics.Impressions),
		Clicks:      parseInt(r.Metrics.Clicks),
	}

	if itemType == domain.ItemTypeAdGroup && r.AdGroup != nil {
		row.ItemID = r.AdGroup.ID
	}
	if itemType == domain.ItemTypeAd && r.AdGroupAd != nil {
		row.ItemID = r.AdGroupAd.Ad.ID
	}

	conversions := r.Metrics.Conversions
	row.Conversions = &conversions

	convValue := r.Metrics.ConversionsValue
	row.ConvValue = &convValue

	ctr := utils.RoundWithTwoDecimalPlace(r.Metrics.CTR * 100)
	row.CTR = &ctr

	// Valores monetários chegam em micros
	if spent := parseInt(r.Metrics.CostMicros); spent != nil {
		value := utils.RoundWithTwoDecimalPlace(float64(*spent) / 1e6)
		row.Spent = &value

		if conversions > 0 {
			cpa := utils.RoundWithTwoDecimalPlace(value / conversions)
			row.CPA = &cpa
		}
	}

	cpc := utils.RoundWithTwoDecimalPlace(r.Metrics.AverageCPC / 1e6)
	row.CPC = &cpc

	cpm := utils.RoundWithTwoDecimalPlace(r.Metrics.AverageCPM / 1e6)
	row.CPM = &cpm

	if row.Impressions != nil && *row.Impressions > 0 && conversions > 0 && row.Clicks != nil && *row.Clicks > 0 {
		cvr := utils.RoundWithTwoDecimalPlace(conversions / float64(*row.Clicks) * 100)
		row.CVR = &cvr
	}

	return row
}

func parseInt(s string) *int64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
