package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultListLimit = 50

// Journal — журнал вызовов шагов.
//
// Потребители (HTTP хост, worker) допускают nil Journal.
type Journal interface {
	Record(ctx context.Context, inv *Invocation) error
}

// InvocationRepo — репозиторий журнала вызовов.
type InvocationRepo struct {
	pool *pgxpool.Pool
}

// NewInvocationRepo создаёт новый InvocationRepo.
func NewInvocationRepo(pool *pgxpool.Pool) *InvocationRepo {
	return &InvocationRepo{pool: pool}
}

// Record реализует Journal.
func (r *InvocationRepo) Record(ctx context.Context, inv *Invocation) error {
	return r.Create(ctx, inv)
}

// Create сохраняет запись.
func (r *InvocationRepo) Create(ctx context.Context, inv *Invocation) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	query := `
		INSERT INTO step_invocations
			(id, guid, step, result, status_code, request_data, response_data, duration_ms, transport, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		inv.ID,
		inv.GUID,
		inv.Step,
		inv.Result,
		inv.StatusCode,
		nullString(inv.RequestData),
		nullString(inv.ResponseData),
		inv.DurationMs,
		inv.Transport,
		inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

// GetByID возвращает запись по ID.
func (r *InvocationRepo) GetByID(ctx context.Context, id uuid.UUID) (*Invocation, error) {
	query := `
		SELECT id, guid, step, result, status_code, request_data, response_data,
		       duration_ms, transport, created_at
		FROM step_invocations
		WHERE id = $1
	`
	return scanInvocation(r.pool.QueryRow(ctx, query, id))
}

// ListByGUID возвращает все вызовы одного GUID в порядке выполнения.
func (r *InvocationRepo) ListByGUID(ctx context.Context, guid string) ([]Invocation, error) {
	query := `
		SELECT id, guid, step, result, status_code, request_data, response_data,
		       duration_ms, transport, created_at
		FROM step_invocations
		WHERE guid = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, guid)
	if err != nil {
		return nil, fmt.Errorf("list invocations by guid: %w", err)
	}
	return collectInvocations(rows)
}

// ListRecent возвращает последние вызовы. limit <= 0 — 50.
func (r *InvocationRepo) ListRecent(ctx context.Context, limit int) ([]Invocation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, guid, step, result, status_code, request_data, response_data,
		       duration_ms, transport, created_at
		FROM step_invocations
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent invocations: %w", err)
	}
	return collectInvocations(rows)
}

func collectInvocations(rows pgx.Rows) ([]Invocation, error) {
	defer rows.Close()

	var out []Invocation
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// scanInvocation сканирует одну строку. pgx.Row покрывает и QueryRow, и Rows.
func scanInvocation(row pgx.Row) (*Invocation, error) {
	var (
		inv          Invocation
		requestData  *string
		responseData *string
	)

	err := row.Scan(
		&inv.ID,
		&inv.GUID,
		&inv.Step,
		&inv.Result,
		&inv.StatusCode,
		&requestData,
		&responseData,
		&inv.DurationMs,
		&inv.Transport,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan invocation: %w", err)
	}

	if requestData != nil {
		inv.RequestData = *requestData
	}
	if responseData != nil {
		inv.ResponseData = *responseData
	}

	return &inv, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
