package repository

import (
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/metrics-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/metrics-sync-api/internal/domain"
)

const connectionsTable = "connections"

// Número de falhas consecutivas a partir do qual a conexão passa a
// exigir reautenticação manual
const maxConsecutiveFailures = 5

type ConnectionRepository interface {
	GetActiveByPlatformAccount(platformAccountID int64) (*domain.Connection, error)
	RecordFailure(connectionID int64, reason string, needsReauth bool) error
	RecordSuccess(connectionID int64) error
	ListFailing() ([]*domain.Connection, error)
}

type connectionRepository struct {
	conn *postgres.Connection
}

func NewConnectionRepository(conn *postgres.Connection) ConnectionRepository {
	return &connectionRepository{
		conn: conn,
	}
}

var connectionColumns = "id, platform_account_id, access_token, refresh_token, expires_at, " +
	"revoked, needs_reauth, failure_count, failure_reason, last_failure_at, last_validated_at, " +
	"created_at, updated_at"

// GetActiveByPlatformAccount retorna a conexão não revogada mais recente
// da conta, ou nil quando a conta nunca foi conectada
func (r *connectionRepository) GetActiveByPlatformAccount(platformAccountID int64) (*domain.Connection, error) {
	query, args, err := squirrel.
		Select(connectionColumns).
		From(connectionsTable).
		Where(squirrel.Eq{"platform_account_id": platformAccountID, "revoked": false}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	connection, err := r.scanConnection(r.conn.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao buscar conexão: %w", err)
	}

	return connection, nil
}

// RecordFailure incrementa o contador de falhas consecutivas e marca a
// conexão como precisando de reautenticação quando o erro é de credencial
// ou quando o limite de falhas é atingido
func (r *connectionRepository) RecordFailure(connectionID int64, reason string, needsReauth bool) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			failure_count = failure_count + 1,
			failure_reason = $2,
			last_failure_at = NOW(),
			needs_reauth = $3 OR failure_count + 1 >= $4,
			updated_at = NOW()
		WHERE id = $1
	`, connectionsTable)

	_, err := r.conn.Exec(query, connectionID, reason, needsReauth, maxConsecutiveFailures)
	if err != nil {
		return fmt.Errorf("erro ao registrar falha da conexão: %w", err)
	}

	return nil
}

// RecordSuccess zera o rastreamento de falhas após uma chamada bem-sucedida
func (r *connectionRepository) RecordSuccess(connectionID int64) error {
	query, args, err := squirrel.
		Update(connectionsTable).
		Set("failure_count", 0).
		Set("failure_reason", nil).
		Set("last_failure_at", nil).
		Set("last_validated_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": connectionID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if _, err := r.conn.Exec(query, args...); err != nil {
		return fmt.Errorf("erro ao registrar sucesso da conexão: %w", err)
	}

	return nil
}

// ListFailing retorna as conexões com falhas registradas ou marcadas para
// reautenticação, para exibição no painel de saúde das conexões
func (r *connectionRepository) ListFailing() ([]*domain.Connection, error) {
	query, args, err := squirrel.
		Select(connectionColumns).
		From(connectionsTable).
		Where(squirrel.Eq{"revoked": false}).
		Where(squirrel.Or{
			squirrel.Eq{"needs_reauth": true},
			squirrel.Gt{"failure_count": 0},
		}).
		OrderBy("last_failure_at DESC NULLS LAST").
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

	connections := make([]*domain.Connection, 0)
	for rows.Next() {
		connection, err := r.scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear conexão: %w", err)
		}
		connections = append(connections, connection)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return connections, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *connectionRepository) scanConnection(row rowScanner) (*domain.Connection, error) {
	connection := &domain.Connection{}

	err := row.Scan(
		&connection.ID,
		&connection.PlatformAccountID,
		&connection.AccessToken,
		&connection.RefreshToken,
		&connection.ExpiresAt,
		&connection.Revoked,
		&connection.NeedsReauth,
		&connection.FailureCount,
		&connection.FailureReason,
		&connection.LastFailureAt,
		&connection.LastValidatedAt,
		&connection.CreatedAt,
		&connection.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return connection, nil
}
