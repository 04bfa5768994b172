package domain

import (
	"errors"
	"fmt"
)

// ConnectorErrorCategory classifica falhas de conectores de plataforma
type ConnectorErrorCategory string

const (
	ConnectorErrAuthExpired       ConnectorErrorCategory = "auth_expired"
	ConnectorErrRateLimited       ConnectorErrorCategory = "rate_limited"
	ConnectorErrTransientNetwork  ConnectorErrorCategory = "transient_network"
	ConnectorErrMalformedResponse ConnectorErrorCategory = "malformed_response"
)

// ConnectorError é o erro tipado devolvido pelos conectores de plataforma
type ConnectorError struct {
	Provider Provider
	Category ConnectorErrorCategory
	Err      error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Provider, e.Category, e.Err)
}

func (e *ConnectorError) Unwrap() error {
	return e.Err
}

// NewConnectorError cria um erro de conector com a categoria informada
func NewConnectorError(provider Provider, category ConnectorErrorCategory, err error) *ConnectorError {
	return &ConnectorError{Provider: provider, Category: category, Err: err}
}

// AsConnectorError extrai um ConnectorError da cadeia de erros, se houver
func AsConnectorError(err error) (*ConnectorError, bool) {
	var connErr *ConnectorError
	if errors.As(err, &connErr) {
		return connErr, true
	}
	return nil, false
}
