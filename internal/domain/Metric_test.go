package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawMetricRow_ToRecord(t *testing.T) {
	impressions := int64(1200)
	spent := 45.9

	tests := []struct {
		name     string
		row      RawMetricRow
		validate func(t *testing.T, record *MetricRecord, err error)
	}{
		{
			name: "Linha válida é convertida",
			row: RawMetricRow{
				Date:        "2024-03-10",
				ItemID:      "ad-1",
				ItemType:    "ad",
				Impressions: &impressions,
				Spent:       &spent,
			},
			validate: func(t *testing.T, record *MetricRecord, err error) {
				assert.NoError(t, err)
				assert.Equal(t, "ad-1", record.ItemID)
				assert.Equal(t, int64(10), record.PlatformID)
				assert.Equal(t, ItemTypeAd, record.ItemType)
				assert.Equal(t, "2024-03-10", record.Date.Format("2006-01-02"))
				assert.Equal(t, int64(1200), *record.Impressions)
			},
		},
		{
			name: "Data em formato inválido é rejeitada",
			row: RawMetricRow{
				Date:     "10/03/2024",
				ItemID:   "ad-1",
				ItemType: "ad",
			},
			validate: func(t *testing.T, record *MetricRecord, err error) {
				assert.Error(t, err)
				assert.Nil(t, record)
			},
		},
		{
			name: "Linha sem identificador de item é rejeitada",
			row: RawMetricRow{
				Date:     "2024-03-10",
				ItemType: "ad",
			},
			validate: func(t *testing.T, record *MetricRecord, err error) {
				assert.Error(t, err)
				assert.Nil(t, record)
			},
		},
		{
			name: "Tipo de item desconhecido é rejeitado",
			row: RawMetricRow{
				Date:     "2024-03-10",
				ItemID:   "ad-1",
				ItemType: "banner",
			},
			validate: func(t *testing.T, record *MetricRecord, err error) {
				assert.Error(t, err)
				assert.Nil(t, record)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := tt.row.ToRecord(10)
			tt.validate(t, record, err)
		})
	}
}

func TestSyncRunResult_AddError(t *testing.T) {
	result := &SyncRunResult{}

	result.AddError(SyncError{Message: "erro comum"})
	result.AddError(SyncError{Message: "credencial expirada", ConnectionFailure: true})
	result.AddError(SyncError{Message: "outro erro comum"})

	assert.Equal(t, 2, result.ErrorsCount)
	assert.Equal(t, 1, result.ConnectionFailures)
	assert.Len(t, result.ErrorDetails, 3)
}

func TestConnection_Usable(t *testing.T) {
	var nilConnection *Connection
	assert.False(t, nilConnection.Usable())

	assert.False(t, (&Connection{Revoked: true}).Usable())
	assert.False(t, (&Connection{NeedsReauth: true}).Usable())
	assert.True(t, (&Connection{}).Usable())
}
