package domain

// SyncError descreve uma falha ocorrida durante a sincronização de uma
// conta de plataforma específica
type SyncError struct {
	CustomerID        int64    `json:"customer_id"`
	PlatformAccountID int64    `json:"platform_account_id"`
	Provider          Provider `json:"provider"`
	Message           string   `json:"message"`
	ConnectionFailure bool     `json:"connection_failure"`
}

// SyncRunResult resume o resultado de uma execução completa de
// sincronização. Não é persistido; é devolvido ao chamador e descartado.
type SyncRunResult struct {
	Success            bool        `json:"success"`
	RunID              string      `json:"run_id"`
	CustomersProcessed int         `json:"customers_processed"`
	PlatformsProcessed int         `json:"platforms_processed"`
	MetricsUpserted    int         `json:"metrics_upserted"`
	MetricsPruned      int64       `json:"metrics_pruned"`
	ErrorsCount        int         `json:"errors_count"`
	ConnectionFailures int         `json:"connection_failures"`
	ErrorDetails       []SyncError `json:"error_details"`
	DurationSeconds    float64     `json:"duration_seconds"`
}

// AddError registra uma falha de conta e atualiza os contadores
func (r *SyncRunResult) AddError(e SyncError) {
	r.ErrorDetails = append(r.ErrorDetails, e)
	if e.ConnectionFailure {
		r.ConnectionFailures++
		return
	}
	r.ErrorsCount++
}
