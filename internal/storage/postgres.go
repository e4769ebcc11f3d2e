package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/facepoint/internal/config"
	"github.com/your-org/facepoint/internal/models"
	"github.com/your-org/facepoint/internal/observability"
	"github.com/your-org/facepoint/internal/recognize"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Employees ---

func (s *PostgresStore) CreateEmployee(ctx context.Context, code, fullName string) (*models.Employee, error) {
	e := &models.Employee{
		ID:       uuid.New(),
		Code:     code,
		FullName: fullName,
		Status:   models.EmployeeActive,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO employees (id, employee_code, full_name, status) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		e.ID, e.Code, e.FullName, e.Status,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	e := &models.Employee{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, employee_code, full_name, status, COALESCE(photo_key, ''),
		        COALESCE(descriptor_encoding, ''), descriptor IS NOT NULL,
		        created_at, updated_at
		 FROM employees WHERE id = $1`, id,
	).Scan(&e.ID, &e.Code, &e.FullName, &e.Status, &e.PhotoKey,
		&e.DescriptorEncoding, &e.Enrolled, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, employee_code, full_name, status, COALESCE(photo_key, ''),
		        COALESCE(descriptor_encoding, ''), descriptor IS NOT NULL,
		        created_at, updated_at
		 FROM employees ORDER BY employee_code`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Code, &e.FullName, &e.Status, &e.PhotoKey,
			&e.DescriptorEncoding, &e.Enrolled, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, nil
}

// SetDescriptor overwrites the employee's stored face descriptor. New blobs
// are always float32; the encoding tag makes the width explicit for loads.
func (s *PostgresStore) SetDescriptor(ctx context.Context, id uuid.UUID, descriptor []float32, photoKey string) error {
	blob := recognize.EncodeDescriptor(descriptor)
	tag, err := s.pool.Exec(ctx,
		`UPDATE employees
		 SET descriptor = $1, descriptor_encoding = $2, photo_key = $3, updated_at = now()
		 WHERE id = $4`,
		blob, recognize.EncodingFloat32, photoKey, id)
	if err != nil {
		return fmt.Errorf("set descriptor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee not found")
	}
	return nil
}

func (s *PostgresStore) SetEmployeeStatus(ctx context.Context, id uuid.UUID, status models.EmployeeStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE employees SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("set employee status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee not found")
	}
	return nil
}

func (s *PostgresStore) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee not found")
	}
	return nil
}

// LoadDescriptors reads every enrolled descriptor, ordered by employee code
// so downstream tie-breaking is deterministic. A blob that fails to decode
// is logged and skipped; one corrupt record must not disable recognition
// for everyone else.
func (s *PostgresStore) LoadDescriptors(ctx context.Context) ([]recognize.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, employee_code, descriptor, COALESCE(descriptor_encoding, '')
		 FROM employees
		 WHERE descriptor IS NOT NULL AND status = 'Active'
		 ORDER BY employee_code`)
	if err != nil {
		return nil, fmt.Errorf("load descriptors: %w", err)
	}
	defer rows.Close()

	var entries []recognize.Entry
	for rows.Next() {
		var id uuid.UUID
		var code string
		var blob []byte
		var encoding string
		if err := rows.Scan(&id, &code, &blob, &encoding); err != nil {
			return nil, fmt.Errorf("scan descriptor row: %w", err)
		}

		descriptor, err := recognize.DecodeDescriptor(blob, encoding)
		if err != nil {
			slog.Warn("skipping corrupt descriptor", "employee_code", code, "error", err)
			continue
		}
		entries = append(entries, recognize.Entry{
			EmployeeID: id,
			Code:       code,
			Descriptor: descriptor,
		})
	}

	observability.GalleryReloads.Inc()
	observability.GallerySize.Set(float64(len(entries)))
	return entries, nil
}

// --- Attendance ---

func (s *PostgresStore) GetAttendance(ctx context.Context, employeeID uuid.UUID, date string) (*models.Attendance, error) {
	a := &models.Attendance{}
	err := s.pool.QueryRow(ctx,
		`SELECT attendance_id, employee_id, date, COALESCE(morning_in, ''), COALESCE(lunch_out, ''),
		        COALESCE(afternoon_in, ''), COALESCE(time_out, ''), attendance_status,
		        verification_method, created_at
		 FROM attendance WHERE employee_id = $1 AND date = $2`,
		employeeID, date,
	).Scan(&a.ID, &a.EmployeeID, &a.Date, &a.MorningIn, &a.LunchOut,
		&a.AfternoonIn, &a.TimeOut, &a.Status, &a.VerificationMethod, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) CreateAttendance(ctx context.Context, a *models.Attendance) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO attendance (employee_id, date, morning_in, lunch_out, afternoon_in, time_out,
		                         attendance_status, verification_method)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8)
		 RETURNING attendance_id, created_at`,
		a.EmployeeID, a.Date, a.MorningIn, a.LunchOut, a.AfternoonIn, a.TimeOut,
		a.Status, a.VerificationMethod,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// slotColumns whitelists updatable slot names; slot identifiers never come
// from user input but the indirection keeps the SQL static.
var slotColumns = map[string]string{
	"morning_in":   "morning_in",
	"lunch_out":    "lunch_out",
	"afternoon_in": "afternoon_in",
	"time_out":     "time_out",
}

// SetAttendanceSlot fills one slot of an existing daily record. An empty
// status leaves attendance_status untouched (lunch/time-out writes do not
// re-evaluate lateness).
func (s *PostgresStore) SetAttendanceSlot(ctx context.Context, employeeID uuid.UUID, date, slot, value string, status models.AttendanceStatus) error {
	col, ok := slotColumns[slot]
	if !ok {
		return fmt.Errorf("unknown attendance slot %q", slot)
	}
	query := fmt.Sprintf(
		`UPDATE attendance
		 SET %s = $1,
		     attendance_status = CASE WHEN $2 = '' THEN attendance_status ELSE $2 END
		 WHERE employee_id = $3 AND date = $4`, col)
	tag, err := s.pool.Exec(ctx, query, value, string(status), employeeID, date)
	if err != nil {
		return fmt.Errorf("set attendance slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attendance record not found")
	}
	return nil
}

func (s *PostgresStore) ListAttendanceByDate(ctx context.Context, date string) ([]models.Attendance, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.attendance_id, a.employee_id, a.date, COALESCE(a.morning_in, ''), COALESCE(a.lunch_out, ''),
		        COALESCE(a.afternoon_in, ''), COALESCE(a.time_out, ''), a.attendance_status,
		        a.verification_method, a.created_at
		 FROM attendance a
		 JOIN employees e ON e.id = a.employee_id
		 WHERE a.date = $1
		 ORDER BY e.full_name`, date)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var records []models.Attendance
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Date, &a.MorningIn, &a.LunchOut,
			&a.AfternoonIn, &a.TimeOut, &a.Status, &a.VerificationMethod, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, nil
}

// ListAttendanceSince returns attendance records with date >= since, newest
// first, optionally restricted to one employee. limit caps the result size.
func (s *PostgresStore) ListAttendanceSince(ctx context.Context, since string, employeeID *uuid.UUID, limit int) ([]models.Attendance, error) {
	query := `SELECT a.attendance_id, a.employee_id, a.date, COALESCE(a.morning_in, ''), COALESCE(a.lunch_out, ''),
	                 COALESCE(a.afternoon_in, ''), COALESCE(a.time_out, ''), a.attendance_status,
	                 a.verification_method, a.created_at
	          FROM attendance a
	          JOIN employees e ON e.id = a.employee_id
	          WHERE a.date >= $1`
	args := []any{since}
	if employeeID != nil {
		args = append(args, *employeeID)
		query += fmt.Sprintf(" AND a.employee_id = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY a.date DESC, e.full_name LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance history: %w", err)
	}
	defer rows.Close()

	var records []models.Attendance
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Date, &a.MorningIn, &a.LunchOut,
			&a.AfternoonIn, &a.TimeOut, &a.Status, &a.VerificationMethod, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, nil
}

// DailySummary returns the dashboard counters for a single date.
func (s *PostgresStore) DailySummary(ctx context.Context, date string) (*models.DailySummary, error) {
	sum := &models.DailySummary{Date: date}
	err := s.pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM employees WHERE status = 'Active'),
		   COALESCE(SUM(CASE WHEN attendance_status = 'Present' THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN attendance_status = 'Absent' THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN attendance_status = 'Late' THEN 1 ELSE 0 END), 0)
		 FROM attendance WHERE date = $1`, date,
	).Scan(&sum.TotalEmployees, &sum.Present, &sum.Absent, &sum.Late)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	return sum, nil
}

// --- Recognition events ---

func (s *PostgresStore) CreateEvent(ctx context.Context, ev *models.RecognitionEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	ev.CreatedAt = time.Now()
	var vec *pgvector.Vector
	if len(ev.Descriptor) > 0 {
		v := pgvector.NewVector(ev.Descriptor)
		vec = &v
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO recognition_events
		   (id, employee_id, matched, distance, similarity, live, liveness_reason, slot,
		    snapshot_key, descriptor, timestamp, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ev.ID, ev.EmployeeID, ev.Matched, ev.Distance, ev.Similarity, ev.Live,
		ev.LivenessReason, ev.Slot, ev.SnapshotKey, vec, ev.Timestamp, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("create recognition event: %w", err)
	}
	return nil
}

func (s *PostgresStore) QueryEvents(ctx context.Context, employeeID *uuid.UUID, from, to *time.Time, limit, offset int) ([]models.RecognitionEvent, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	baseWhere := "WHERE true"
	args := []interface{}{}
	argIdx := 1

	if employeeID != nil {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *employeeID)
		argIdx++
	}
	if from != nil {
		baseWhere += fmt.Sprintf(" AND timestamp >= $%d", argIdx)
		args = append(args, *from)
		argIdx++
	}
	if to != nil {
		baseWhere += fmt.Sprintf(" AND timestamp <= $%d", argIdx)
		args = append(args, *to)
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM recognition_events " + baseWhere
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, employee_id, matched, distance, similarity, live,
		        COALESCE(liveness_reason, ''), COALESCE(slot, ''), COALESCE(snapshot_key, ''),
		        timestamp, created_at
		 FROM recognition_events %s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`,
		baseWhere, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.RecognitionEvent
	for rows.Next() {
		var ev models.RecognitionEvent
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &ev.Matched, &ev.Distance, &ev.Similarity,
			&ev.Live, &ev.LivenessReason, &ev.Slot, &ev.SnapshotKey,
			&ev.Timestamp, &ev.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, total, nil
}

type EventMatch struct {
	EventID    uuid.UUID  `json:"event_id"`
	EmployeeID *uuid.UUID `json:"employee_id,omitempty"`
	Matched    bool       `json:"matched"`
	Score      float32    `json:"score"`
	Timestamp  time.Time  `json:"timestamp"`
}

// SearchEvents finds past recognition attempts whose probe descriptor is
// close to the given one (cosine similarity via pgvector). Useful for
// auditing repeated unmatched attempts by the same face.
func (s *PostgresStore) SearchEvents(ctx context.Context, descriptor []float32, threshold float64, limit int) ([]EventMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := pgvector.NewVector(descriptor)

	rows, err := s.pool.Query(ctx,
		`SELECT id, employee_id, matched, 1 - (descriptor <=> $1) AS score, timestamp
		 FROM recognition_events
		 WHERE descriptor IS NOT NULL
		   AND 1 - (descriptor <=> $1) >= $2
		 ORDER BY descriptor <=> $1
		 LIMIT $3`,
		vec, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	var matches []EventMatch
	for rows.Next() {
		var m EventMatch
		if err := rows.Scan(&m.EventID, &m.EmployeeID, &m.Matched, &m.Score, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}
