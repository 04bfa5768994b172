package domain

import "time"

// Provider identifica a plataforma de anúncios de uma conta conectada
type Provider string

const (
	ProviderGoogleAds   Provider = "google_ads"
	ProviderFacebookAds Provider = "facebook_ads"
)

// Customer representa um cliente (tenant) da agência
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlatformAccount representa uma conta de anúncios conectada em uma
// plataforma externa, pertencente a um cliente
type PlatformAccount struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Provider   Provider  `json:"provider"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
