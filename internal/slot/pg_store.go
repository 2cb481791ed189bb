package slot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotColumns = `id, org_id, center_id, staff_user_id, patient_user_id, start_at, end_at,
		       status, specialty, notes, cancel_reason, cancelled_at, created_at, updated_at`

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Helpers

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.OrgID,
		&s.CenterID,
		&s.StaffUserID,
		&s.PatientUserID,
		&s.StartAt,
		&s.EndAt,
		&s.Status,
		&s.Specialty,
		&s.Notes,
		&s.CancelReason,
		&s.CancelledAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

func isPgErrCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// Interface methods

func (r *PgStore) CenterExists(ctx context.Context, centerID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM centers WHERE id = $1)
	`, centerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check center: %w", err)
	}
	return exists, nil
}

func (r *PgStore) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgStore) ListSlots(ctx context.Context, f Filter) ([]Slot, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.OrgID != nil {
		conds = append(conds, "org_id = "+arg(*f.OrgID))
	}
	if f.CenterID != nil {
		conds = append(conds, "center_id = "+arg(*f.CenterID))
	}
	if f.StaffUserID != nil {
		conds = append(conds, "staff_user_id = "+arg(*f.StaffUserID))
	}
	if f.PatientUserID != nil {
		conds = append(conds, "patient_user_id = "+arg(*f.PatientUserID))
	}
	if f.Status != nil {
		conds = append(conds, "status = "+arg(*f.Status))
	}
	if f.Specialty != nil {
		conds = append(conds, "specialty = "+arg(*f.Specialty))
	}
	if f.DateFrom != nil {
		conds = append(conds, "start_at >= "+arg(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, "start_at <= "+arg(*f.DateTo))
	}
	if f.ExcludeFree {
		conds = append(conds, "status <> "+arg(StatusFree))
	}

	query := `SELECT ` + slotColumns + ` FROM slots`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_at ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgStore) HasOverlap(ctx context.Context, staffUserID string, start, end time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM slots
			WHERE staff_user_id = $1
			  AND status <> $2
			  AND start_at < $3
			  AND end_at > $4
		)
	`, staffUserID, StatusCancelled, end, start).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}

func (r *PgStore) InsertSlot(ctx context.Context, s *Slot) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO slots (id, org_id, center_id, staff_user_id, start_at, end_at, status, specialty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+slotColumns+`
	`, s.ID, s.OrgID, s.CenterID, s.StaffUserID, s.StartAt, s.EndAt, s.Status, s.Specialty)

	inserted, err := scanSlot(row)
	if err != nil {
		if isPgErrCode(err, "23505") {
			return ErrSlotExists
		}
		if isPgErrCode(err, "23503") {
			return ErrCenterNotFound
		}
		return fmt.Errorf("insert slot: %w", err)
	}

	*s = *inserted
	return nil
}

// InsertSlotBatch inserts all slots in one transaction so a storage failure
// never leaves a partial agenda behind. Rows colliding with the
// (staff_user_id, start_at) backstop are skipped, not errors.
func (r *PgStore) InsertSlotBatch(ctx context.Context, slots []Slot) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, s := range slots {
		batch.Queue(`
			INSERT INTO slots (id, org_id, center_id, staff_user_id, start_at, end_at, status, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			ON CONFLICT ON CONSTRAINT slots_staff_start_uniq DO NOTHING
		`, s.ID, s.OrgID, s.CenterID, s.StaffUserID, s.StartAt, s.EndAt, s.Status, s.Specialty)
	}

	br := tx.SendBatch(ctx, batch)

	created := 0
	for range slots {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			if isPgErrCode(err, "23503") {
				return 0, ErrCenterNotFound
			}
			return 0, fmt.Errorf("batch insert slot: %w", err)
		}
		created += int(tag.RowsAffected())
	}

	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit batch insert: %w", err)
	}

	return created, nil
}

func (r *PgStore) ReserveSlot(ctx context.Context, id uuid.UUID, patientUserID string, notes *string) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots
		SET status = $2,
		    patient_user_id = $3,
		    notes = $4,
		    updated_at = now()
		WHERE id = $1
		  AND status = $5
		RETURNING `+slotColumns+`
	`, id, StatusReserved, patientUserID, notes, StatusFree)

	s, err := scanSlot(row)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("reserve slot: %w", err)
	}

	// Zero rows: either the slot is gone or somebody else got there first.
	if _, getErr := r.GetSlotByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrAlreadyTaken
}

func (r *PgStore) ConfirmSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+slotColumns+`
	`, id, StatusConfirmed, StatusReserved)

	s, err := scanSlot(row)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("confirm slot: %w", err)
	}

	current, getErr := r.GetSlotByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	switch current.Status {
	case StatusConfirmed:
		return current, nil
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	default:
		return nil, ErrNotReserved
	}
}

func (r *PgStore) ReleaseSlot(ctx context.Context, id uuid.UUID, reason *string, at time.Time) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots
		SET status = $2,
		    patient_user_id = NULL,
		    notes = NULL,
		    cancel_reason = $3,
		    cancelled_at = $4,
		    updated_at = now()
		WHERE id = $1
		  AND status IN ($5, $6)
		RETURNING `+slotColumns+`
	`, id, StatusFree, reason, at, StatusReserved, StatusConfirmed)

	return r.classifyCancelResult(ctx, id, row)
}

func (r *PgStore) CancelSlot(ctx context.Context, id uuid.UUID, reason *string, at time.Time) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots
		SET status = $2,
		    cancel_reason = $3,
		    cancelled_at = $4,
		    updated_at = now()
		WHERE id = $1
		  AND status IN ($5, $6)
		RETURNING `+slotColumns+`
	`, id, StatusCancelled, reason, at, StatusReserved, StatusConfirmed)

	return r.classifyCancelResult(ctx, id, row)
}

func (r *PgStore) classifyCancelResult(ctx context.Context, id uuid.UUID, row pgx.Row) (*Slot, error) {
	s, err := scanSlot(row)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("cancel slot: %w", err)
	}

	current, getErr := r.GetSlotByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	return nil, ErrNotReserved
}

func (r *PgStore) InsertEvent(ctx context.Context, ev SlotEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO slot_events (event_type, slot_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.SlotID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert slot event: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
