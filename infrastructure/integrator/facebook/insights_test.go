package facebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
)

func TestInsightRow_ToRawRow(t *testing.T) {
	row := insightRow{
		DateStart:   "2024-03-10",
		AdID:        "987",
		AdsetID:     "654",
		Impressions: "1500",
		Clicks:      "30",
		Reach:       "1200",
		Spend:       "75.50",
		CTR:         "2.0",
		Frequency:   "1.25",
		Actions: []struct {
			ActionType string `json:"action_type"`
			Value      string `json:"value"`
		}{
			{ActionType: "lead", Value: "5"},
			{ActionType: "link_click", Value: "28"},
		},
	}

	t.Run("Nível ad usa o ad_id", func(t *testing.T) {
		raw := row.toRawRow("ad")

		assert.Equal(t, "987", raw.ItemID)
		assert.Equal(t, string(domain.ItemTypeAd), raw.ItemType)
		assert.Equal(t, "2024-03-10", raw.Date)
		assert.Equal(t, int64(1500), *raw.Impressions)
		assert.Equal(t, int64(30), *raw.Clicks)
		assert.Equal(t, 75.50, *raw.Spent)
		assert.Equal(t, int64(5), *raw.Leads)
	})

	t.Run("Nível adset usa o adset_id como ad_group", func(t *testing.T) {
		raw := row.toRawRow("adset")

		assert.Equal(t, "654", raw.ItemID)
		assert.Equal(t, string(domain.ItemTypeAdGroup), raw.ItemType)
	})

	t.Run("CPL é derivado de spend e leads", func(t *testing.T) {
		raw := row.toRawRow("ad")

		assert.NotNil(t, raw.CPL)
		assert.Equal(t, 15.1, *raw.CPL)
	})

	t.Run("Campos numéricos vazios viram nulos", func(t *testing.T) {
		empty := insightRow{DateStart: "2024-03-10", AdID: "987"}
		raw := empty.toRawRow("ad")

		assert.Nil(t, raw.Impressions)
		assert.Nil(t, raw.Spent)
		assert.Nil(t, raw.Leads)
		assert.Nil(t, raw.CPL)
	})
}
