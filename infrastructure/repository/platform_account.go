package repository

import (
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/metrics-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
)

const platformAccountsTable = "platform_accounts"

type PlatformAccountRepository interface {
	ListByCustomer(customerID int64) ([]*domain.PlatformAccount, error)
	GetByID(id int64) (*domain.PlatformAccount, error)
}

type platformAccountRepository struct {
	conn *postgres.Connection
}

func NewPlatformAccountRepository(conn *postgres.Connection) PlatformAccountRepository {
	return &platformAccountRepository{
		conn: conn,
	}
}

// ListByCustomer retorna as contas de plataforma ativas de um cliente
func (r *platformAccountRepository) ListByCustomer(customerID int64) ([]*domain.PlatformAccount, error) {
	query, args, err := squirrel.
		Select("id, customer_id, provider, external_id, name, active, created_at, updated_at").
		From(platformAccountsTable).
		Where(squirrel.Eq{"customer_id": customerID, "active": true}).
		OrderBy("id").
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

	accounts := make([]*domain.PlatformAccount, 0)
	for rows.Next() {
		account := &domain.PlatformAccount{}
		var provider string

		err := rows.Scan(
			&account.ID,
			&account.CustomerID,
			&provider,
			&account.ExternalID,
			&account.Name,
			&account.Active,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear conta de plataforma: %w", err)
		}

		account.Provider = domain.Provider(provider)
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return accounts, nil
}

func (r *platformAccountRepository) GetByID(id int64) (*domain.PlatformAccount, error) {
	query, args, err := squirrel.
		Select("id, customer_id, provider, external_id, name, active, created_at, updated_at").
		From(platformAccountsTable).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	account := &domain.PlatformAccount{}
	var provider string

	err = r.conn.QueryRow(query, args...).Scan(
		&account.ID,
		&account.CustomerID,
		&provider,
		&account.ExternalID,
		&account.Name,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar conta de plataforma: %w", err)
	}

	account.Provider = domain.Provider(provider)
	return account, nil
}
