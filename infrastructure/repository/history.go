package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/sales-performance-api/infrastructure/database/postgres"
	"github.com/vfg2006/sales-performance-api/internal/domain"
)

const (
	periodHistoryTable = "period_history"
)

var periodHistoryColumns = []string{
	"id",
	"user_id",
	"period_start",
	"period_end",
	"leads_received",
	"leads_converted",
	"payments_processed",
	"payments_amount",
	"commissions_earned",
	"daily_breakdown",
	"archived_at",
}

// HistoryRepository lê os snapshots arquivados. Registros nunca são alterados após a escrita.
type HistoryRepository interface {
	// List retorna os registros dos usuários informados (nil para todos), do mais recente ao mais antigo
	List(ctx context.Context, userIDs []int, limit int) ([]*domain.PeriodHistoryRecord, error)
}

type historyRepository struct {
	conn *postgres.Connection
}

func NewHistoryRepository(conn *postgres.Connection) HistoryRepository {
	return &historyRepository{
		conn: conn,
	}
}

func (r *historyRepository) List(ctx context.Context, userIDs []int, limit int) ([]*domain.PeriodHistoryRecord, error) {
	if userIDs != nil && len(userIDs) == 0 {
		return []*domain.PeriodHistoryRecord{}, nil
	}

	queryBuilder := squirrel.
		Select(periodHistoryColumns...).
		From(periodHistoryTable).
		OrderBy("period_end DESC", "user_id ASC").
		PlaceholderFormat(squirrel.Dollar)

	if userIDs != nil {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"user_id": userIDs})
	}

	if limit > 0 {
		queryBuilder = queryBuilder.Limit(uint64(limit))
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.PeriodHistoryRecord, 0)
	for rows.Next() {
		record := &domain.PeriodHistoryRecord{}
		var dailyJSON []byte

		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.PeriodStart,
			&record.PeriodEnd,
			&record.LeadsReceived,
			&record.LeadsConverted,
			&record.PaymentsProcessed,
			&record.PaymentsAmount,
			&record.CommissionsEarned,
			&dailyJSON,
			&record.ArchivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear histórico: %w", err)
		}

		record.Daily, err = unmarshalDaily(dailyJSON)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return records, nil
}

// insertHistory grava o snapshot dentro da transação do usuário.
// A unicidade de (user_id, period_start) transforma um arquivamento duplicado em ErrConflict.
func insertHistory(ctx context.Context, q postgres.Queryer, record *domain.PeriodHistoryRecord) error {
	daily, err := marshalDaily(record.Daily)
	if err != nil {
		return err
	}

	query, args, err := squirrel.
		Insert(periodHistoryTable).
		Columns(periodHistoryColumns...).
		Values(
			record.ID,
			record.UserID,
			record.PeriodStart,
			record.PeriodEnd,
			record.LeadsReceived,
			record.LeadsConverted,
			record.PaymentsProcessed,
			record.PaymentsAmount,
			record.CommissionsEarned,
			daily,
			record.ArchivedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir query de inserção: %w", err)
	}

	_, err = q.ExecContext(ctx, query, args...)
	if err != nil {
		if postgres.HasErrorCode(err, postgres.UniqueViolation) {
			return domain.NewStatsError(domain.ErrConflict, record.UserID, "período já arquivado")
		}
		return fmt.Errorf("erro ao inserir histórico: %w", err)
	}

	return nil
}
