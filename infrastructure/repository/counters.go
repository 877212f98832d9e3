// Package repository contém as implementações dos repositórios para acesso aos dados
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/sales-performance-api/infrastructure/database/postgres"
	"github.com/vfg2006/sales-performance-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	userCountersTable = "user_counters"
)

var userCountersColumns = []string{
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
	"is_active",
	"created_at",
	"updated_at",
}

// CounterStore guarda os contadores vivos. Toda leitura-modificação-escrita de um usuário
// acontece dentro de RunForUser, que detém a posse exclusiva da linha até o fim da transação.
type CounterStore interface {
	RunForUser(ctx context.Context, userID int, fn func(tx CounterTx) error) error
	ListActive(ctx context.Context) ([]*domain.UserCounters, error)
	ListDueUserIDs(ctx context.Context, now time.Time) ([]int, error)
}

// CounterTx são as operações disponíveis dentro da transação de um usuário.
// Nada é visível para outros leitores antes do commit.
type CounterTx interface {
	// Get retorna a linha ativa bloqueada, ou nil quando o usuário ainda não tem contadores
	Get(ctx context.Context) (*domain.UserCounters, error)
	// Insert cria a linha ativa; retorna false se outra transação já a criou
	Insert(ctx context.Context, counters *domain.UserCounters) (bool, error)
	Update(ctx context.Context, counters *domain.UserCounters) error
	AppendHistory(ctx context.Context, record *domain.PeriodHistoryRecord) error
}

type counterStore struct {
	conn *postgres.Connection
}

func NewCounterStore(conn *postgres.Connection) CounterStore {
	return &counterStore{
		conn: conn,
	}
}

func (s *counterStore) RunForUser(ctx context.Context, userID int, fn func(tx CounterTx) error) error {
	err := s.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&counterTx{tx: tx, userID: userID})
	})
	if err != nil && postgres.HasErrorCode(err, postgres.SerializationFailure, postgres.DeadlockDetected) {
		return domain.NewStatsError(domain.ErrConflict, userID, err.Error())
	}
	return err
}

func (s *counterStore) ListActive(ctx context.Context) ([]*domain.UserCounters, error) {
	query, args, err := squirrel.
		Select(userCountersColumns...).
		From(userCountersTable).
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("user_id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	counters := make([]*domain.UserCounters, 0)
	for rows.Next() {
		item, err := scanCounters(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear contadores: %w", err)
		}
		counters = append(counters, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return counters, nil
}

func (s *counterStore) ListDueUserIDs(ctx context.Context, now time.Time) ([]int, error) {
	query, args, err := squirrel.
		Select("user_id").
		From(userCountersTable).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.LtOrEq{"period_end": now}).
		OrderBy("user_id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	userIDs := make([]int, 0)
	for rows.Next() {
		var userID int
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("erro ao processar resultado: %w", err)
		}
		userIDs = append(userIDs, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante iteração: %w", err)
	}

	return userIDs, nil
}

type counterTx struct {
	tx     *sql.Tx
	userID int
}

func (t *counterTx) Get(ctx context.Context) (*domain.UserCounters, error) {
	query, args, err := squirrel.
		Select(userCountersColumns...).
		From(userCountersTable).
		Where(squirrel.Eq{"user_id": t.userID, "is_active": true}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	counters, err := scanCounters(t.tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao escanear contadores: %w", err)
	}

	return counters, nil
}

func (t *counterTx) Insert(ctx context.Context, counters *domain.UserCounters) (bool, error) {
	daily, err := marshalDaily(counters.Daily)
	if err != nil {
		return false, err
	}

	query, args, err := squirrel.
		Insert(userCountersTable).
		Columns(userCountersColumns[1:]...).
		Values(
			t.userID,
			counters.PeriodStart,
			counters.PeriodEnd,
			counters.LeadsReceived,
			counters.LeadsConverted,
			counters.PaymentsProcessed,
			counters.PaymentsAmount,
			counters.CommissionsEarned,
			daily,
			true,
			counters.CreatedAt,
			counters.UpdatedAt,
		).
		Suffix("ON CONFLICT (user_id) WHERE is_active DO NOTHING RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("erro ao construir query de inserção: %w", err)
	}

	err = t.tx.QueryRowContext(ctx, query, args...).Scan(&counters.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("erro ao inserir contadores: %w", err)
	}

	counters.UserID = t.userID
	counters.IsActive = true
	return true, nil
}

func (t *counterTx) Update(ctx context.Context, counters *domain.UserCounters) error {
	daily, err := marshalDaily(counters.Daily)
	if err != nil {
		return err
	}

	query, args, err := squirrel.
		Update(userCountersTable).
		Set("period_start", counters.PeriodStart).
		Set("period_end", counters.PeriodEnd).
		Set("leads_received", counters.LeadsReceived).
		Set("leads_converted", counters.LeadsConverted).
		Set("payments_processed", counters.PaymentsProcessed).
		Set("payments_amount", counters.PaymentsAmount).
		Set("commissions_earned", counters.CommissionsEarned).
		Set("daily_breakdown", daily).
		Set("updated_at", counters.UpdatedAt).
		Where(squirrel.Eq{"id": counters.ID, "user_id": t.userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir query de atualização: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("erro ao atualizar contadores: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("erro ao obter número de linhas afetadas: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("atualização de contadores afetou %d linhas", affected)
	}

	return nil
}

func (t *counterTx) AppendHistory(ctx context.Context, record *domain.PeriodHistoryRecord) error {
	return insertHistory(ctx, t.tx, record)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCounters(row rowScanner) (*domain.UserCounters, error) {
	counters := &domain.UserCounters{}
	var dailyJSON []byte

	err := row.Scan(
		&counters.ID,
		&counters.UserID,
		&counters.PeriodStart,
		&counters.PeriodEnd,
		&counters.LeadsReceived,
		&counters.LeadsConverted,
		&counters.PaymentsProcessed,
		&counters.PaymentsAmount,
		&counters.CommissionsEarned,
		&dailyJSON,
		&counters.IsActive,
		&counters.CreatedAt,
		&counters.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	counters.Daily, err = unmarshalDaily(dailyJSON)
	if err != nil {
		return nil, err
	}

	return counters, nil
}

func marshalDaily(daily domain.DailyBreakdown) ([]byte, error) {
	if daily == nil {
		daily = domain.DailyBreakdown{}
	}

	data, err := json.Marshal(daily)
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar detalhamento diário para JSON: %w", err)
	}
	return data, nil
}

func unmarshalDaily(data []byte) (domain.DailyBreakdown, error) {
	daily := domain.DailyBreakdown{}
	if len(data) == 0 {
		return daily, nil
	}

	if err := json.Unmarshal(data, &daily); err != nil {
		return nil, fmt.Errorf("erro ao deserializar JSON de daily_breakdown: %w", err)
	}
	return daily, nil
}
