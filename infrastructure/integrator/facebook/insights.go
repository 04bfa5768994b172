package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
	"github.com/vfg2006/metrics-sync-api/pkg/utils"
)

const insightsPageSize = "500"

type insightsResponse struct {
	Data   []insightRow `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *graphError `json:"error"`
}

type graphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// insightRow é uma linha do relatório diário; a Graph API devolve os
// campos numéricos como texto
type insightRow struct {
	DateStart   string `json:"date_start"`
	AdID        string `json:"ad_id"`
	AdsetID     string `json:"adset_id"`
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	Reach       string `json:"reach"`
	Spend       string `json:"spend"`
	CTR         string `json:"ctr"`
	CPC         string `json:"cpc"`
	CPM         string `json:"cpm"`
	Frequency   string `json:"frequency"`
	Actions     []struct {
		ActionType string `json:"action_type"`
		Value      string `json:"value"`
	} `json:"actions"`
}

func (i *Integrator) fetchInsights(
	ctx context.Context,
	connection *domain.Connection,
	account *domain.PlatformAccount,
	request domain.FetchRequest,
	level string,
) ([]domain.RawMetricRow, error) {
	params := url.Values{}
	params.Add("level", level)
	params.Add("time_increment", "1")
	params.Add("time_range", fmt.Sprintf(
		"{\"since\":\"%s\",\"until\":\"%s\"}",
		request.Since.Format(time.DateOnly),
		request.Until.Format(time.DateOnly),
	))
	params.Add("fields", "date_start,ad_id,adset_id,impressions,clicks,reach,spend,ctr,cpc,cpm,frequency,actions")
	params.Add("limit", insightsPageSize)
	params.Add("access_token", connection.AccessToken)

	nextURL := fmt.Sprintf("%s/act_%s/insights?%s", i.cfg.Facebook.URL, account.ExternalID, params.Encode())

	rows := make([]domain.RawMetricRow, 0)

	for nextURL != "" {
		page, err := i.fetchPage(ctx, nextURL)
		if err != nil {
			return nil, err
		}

		for _, insight := range page.Data {
			rows = append(rows, insight.toRawRow(level))
		}

		nextURL = page.Paging.Next
	}

	return rows, nil
}

func (i *Integrator) fetchPage(ctx context.Context, pageURL string) (*insightsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderFacebookAds, domain.ConnectorErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderFacebookAds, domain.ConnectorErrTransientNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, i.classifyError(resp.StatusCode, body)
	}

	var response insightsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		logrus.WithError(err).Error("Erro ao decodificar JSON do Facebook")
		return nil, domain.NewConnectorError(domain.ProviderFacebookAds, domain.ConnectorErrMalformedResponse, err)
	}

	return &response, nil
}

// classifyError traduz a resposta de erro da Graph API para as categorias
// de erro de conector. O código 190 indica token inválido ou expirado;
// os códigos 4 e 17 indicam limite de requisições.
func (i *Integrator) classifyError(statusCode int, body []byte) error {
	var response insightsResponse
	_ = json.Unmarshal(body, &response)

	message := fmt.Errorf("status %d do Facebook", statusCode)
	code := 0
	if response.Error != nil {
		message = fmt.Errorf("status %d do Facebook: %s", statusCode, response.Error.Message)
		code = response.Error.Code
	}

	switch {
	case statusCode == http.StatusUnauthorized || code == 190:
		return domain.NewConnectorError(domain.ProviderFacebookAds, domain.ConnectorErrAuthExpired, message)
	case statusCode == http.StatusTooManyRequests || code == 4 || code == 17:
		return domain.NewConnectorError(domain.ProviderFacebookAds, domain.ConnectorErrRateLimited, message)
	case statusCode >= http.StatusInternalServerError:
		return domain.NewConnectorError(domain.ProviderFacebookAds, domain.ConnectorErrTransientNetwork, message)
	default:
		return domain.NewConnectorError(domain.ProviderFacebookAds, domain.ConnectorErrMalformedResponse, message)
	}
}

func (r insightRow) toRawRow(level string) domain.RawMetricRow {
	row := domain.RawMetricRow{
		Date:        r.DateStart,
		Impressions: parseInt(r.Impressions),
		Clicks:      parseInt(r.Clicks),
		Reach:       parseInt(r.Reach),
		Spent:       parseFloat(r.Spend),
		CTR:         parseFloat(r.CTR),
		CPC:         parseFloat(r.CPC),
		CPM:         parseFloat(r.CPM),
		Frequency:   parseFloat(r.Frequency),
	}

	if level == "adset" {
		row.ItemID = r.AdsetID
		row.ItemType = string(domain.ItemTypeAdGroup)
	} else {
		row.ItemID = r.AdID
		row.ItemType = string(domain.ItemTypeAd)
	}

	for _, action := range r.Actions {
		if action.ActionType == "lead" {
			row.Leads = parseInt(action.Value)
		}
	}

	if row.Leads != nil && row.Spent != nil && *row.Leads > 0 {
		cpl := utils.RoundWithTwoDecimalPlace(*row.Spent / float64(*row.Leads))
		row.CPL = &cpl
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

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
