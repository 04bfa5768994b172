package domain

import "time"

// Connection guarda as credenciais de acesso de uma conta de plataforma,
// com rastreamento de falhas para sinalizar necessidade de reautenticação
type Connection struct {
	ID                int64      `json:"id"`
	PlatformAccountID int64      `json:"platform_account_id"`
	AccessToken       string     `json:"-"`
	RefreshToken      *string    `json:"-"`
	ExpiresAt         *time.Time `json:"expires_at"`
	Revoked           bool       `json:"revoked"`
	NeedsReauth       bool       `json:"needs_reauth"`
	FailureCount      int        `json:"failure_count"`
	FailureReason     *string    `json:"failure_reason"`
	LastFailureAt     *time.Time `json:"last_failure_at"`
	LastValidatedAt   *time.Time `json:"last_validated_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Usable informa se a conexão pode ser usada para chamadas à plataforma
func (c *Connection) Usable() bool {
	return c != nil && !c.Revoked && !c.NeedsReauth
}
