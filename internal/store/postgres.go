package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"attendtrack/internal/apperr"
	"attendtrack/internal/model"
)

// Postgres persists the roster, attendance and calendar in Postgres.
// Every write that can race is a single upsert keyed on a unique constraint.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a repository over an open connection.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Ping verifies the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// -------- Admins --------

const adminColumns = `id, email, name, password_hash, role, created_at`

func scanAdmin(row interface{ Scan(...any) error }) (*model.Admin, error) {
	var a model.Admin
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// FindAdminByEmail returns nil when no admin has that email.
func (p *Postgres) FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return scanAdmin(p.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, email))
}

// GetAdmin returns nil when the id is unknown.
func (p *Postgres) GetAdmin(ctx context.Context, id string) (*model.Admin, error) {
	if !validID(id) {
		return nil, nil
	}
	return scanAdmin(p.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id))
}

// CreateAdmin inserts a new admin; a duplicate email yields apperr.ErrConflict.
func (p *Postgres) CreateAdmin(ctx context.Context, a *model.Admin) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = model.RoleAdmin
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO admins (id, email, name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, a.ID, a.Email, a.Name, a.PasswordHash, a.Role).Scan(&a.CreatedAt)
	return translate(err, "admin")
}

// -------- Students --------

const studentColumns = `id, roll_number, student_name, department, program_type, password_hash, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }) (*model.Student, error) {
	var s model.Student
	if err := row.Scan(&s.ID, &s.RollNumber, &s.Name, &s.Department, &s.ProgramType, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// CreateStudent inserts a new student; a duplicate roll number yields apperr.ErrConflict.
func (p *Postgres) CreateStudent(ctx context.Context, s *model.Student) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO students (id, roll_number, student_name, department, program_type, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, s.ID, s.RollNumber, s.Name, s.Department, s.ProgramType, s.PasswordHash).Scan(&s.CreatedAt, &s.UpdatedAt)
	return translate(err, "student")
}

// GetStudent returns nil when the id is unknown.
func (p *Postgres) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	if !validID(id) {
		return nil, nil
	}
	return scanStudent(p.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
}

// FindStudentByRoll looks up a normalized roll number; nil when absent.
func (p *Postgres) FindStudentByRoll(ctx context.Context, roll string) (*model.Student, error) {
	return scanStudent(p.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE roll_number = $1`, roll))
}

// ListStudents returns the roster ordered by department then name.
func (p *Postgres) ListStudents(ctx context.Context, f model.StudentFilter) ([]model.Student, error) {
	var w where
	if f.Department != "" {
		w.add("department = ?", f.Department)
	}
	if f.ProgramType != "" {
		w.add("program_type = ?", f.ProgramType)
	}
	if f.Search != "" {
		w.add("(student_name ILIKE ? OR roll_number ILIKE ?)", "%"+escapeLike(f.Search)+"%")
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students`+w.sql()+` ORDER BY department, student_name`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// UpdateStudent changes profile fields only; nil when the id is unknown.
func (p *Postgres) UpdateStudent(ctx context.Context, id string, u model.StudentUpdate) (*model.Student, error) {
	if !validID(id) {
		return nil, nil
	}
	return scanStudent(p.db.QueryRowContext(ctx, `
		UPDATE students SET
			student_name = COALESCE($2, student_name),
			department   = COALESCE($3, department),
			program_type = COALESCE($4, program_type),
			updated_at   = NOW()
		WHERE id = $1
		RETURNING `+studentColumns, id, u.Name, u.Department, programArg(u.ProgramType)))
}

// UpsertStudentProfile inserts s or, when the roll number exists, overwrites
// name, department and program type. The stored credential of an existing
// student is never touched. It reports whether a new row was created.
func (p *Postgres) UpsertStudentProfile(ctx context.Context, s *model.Student) (bool, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	var inserted bool
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO students (id, roll_number, student_name, department, program_type, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (roll_number) DO UPDATE SET
			student_name = EXCLUDED.student_name,
			department   = EXCLUDED.department,
			program_type = EXCLUDED.program_type,
			updated_at   = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0)
	`, s.ID, s.RollNumber, s.Name, s.Department, s.ProgramType, s.PasswordHash).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt, &inserted)
	return inserted, err
}

// SetStudentPassword replaces a credential hash; false when the id is unknown.
func (p *Postgres) SetStudentPassword(ctx context.Context, id, hash string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res, err := p.db.ExecContext(ctx, `UPDATE students SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	return affected(res, err)
}

// DeleteStudent removes a student; attendance rows go with it (ON DELETE CASCADE).
func (p *Postgres) DeleteStudent(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	return affected(res, err)
}

// CountStudents returns the roster size.
func (p *Postgres) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n)
	return n, err
}

// -------- Attendance --------

// UpsertAttendance writes the record for (StudentID, Date), replacing the
// flags of an existing one rather than adding to them.
func (p *Postgres) UpsertAttendance(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, student_id, date, am_present, pm_present, training_event, remarks)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7)
		ON CONFLICT (student_id, date) DO UPDATE SET
			am_present     = EXCLUDED.am_present,
			pm_present     = EXCLUDED.pm_present,
			training_event = EXCLUDED.training_event,
			remarks        = EXCLUDED.remarks,
			updated_at     = NOW()
		RETURNING id, date, created_at, updated_at
	`, rec.ID, rec.StudentID, dayArg(rec.Date), rec.AMPresent, rec.PMPresent, rec.TrainingEvent, rec.Remarks).
		Scan(&rec.ID, &rec.Date, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return model.AttendanceRecord{}, translate(err, "attendance")
	}
	return rec, nil
}

// ListStudentAttendance returns one student's records in date order.
func (p *Postgres) ListStudentAttendance(ctx context.Context, studentID string, r model.DateRange) ([]model.AttendanceRecord, error) {
	if !validID(studentID) {
		return nil, nil
	}
	var w where
	w.add("student_id = ?", studentID)
	addRange(&w, "date", r)

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, student_id, date, am_present, pm_present, training_event, remarks, created_at, updated_at
		FROM attendance`+w.sql()+` ORDER BY date`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Date, &rec.AMPresent, &rec.PMPresent,
			&rec.TrainingEvent, &rec.Remarks, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListAttendanceRows joins attendance to students and applies f, ordered by
// date then roll number.
func (p *Postgres) ListAttendanceRows(ctx context.Context, f model.RecordFilter) ([]model.AttendanceRow, error) {
	var w where
	addRange(&w, "a.date", f.Range)
	if f.StudentID != "" {
		if !validID(f.StudentID) {
			return nil, nil
		}
		w.add("a.student_id = ?", f.StudentID)
	}
	if f.Department != "" {
		w.add("s.department = ?", f.Department)
	}
	if f.ProgramType != "" {
		w.add("s.program_type = ?", f.ProgramType)
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT s.id, s.student_name, s.roll_number, s.department, s.program_type,
		       a.date, a.am_present, a.pm_present, a.training_event, a.remarks
		FROM attendance a
		JOIN students s ON s.id = a.student_id`+w.sql()+`
		ORDER BY a.date, s.roll_number`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AttendanceRow
	for rows.Next() {
		var r model.AttendanceRow
		if err := rows.Scan(&r.StudentID, &r.StudentName, &r.RollNumber, &r.Department, &r.ProgramType,
			&r.Date, &r.AMPresent, &r.PMPresent, &r.TrainingEvent, &r.Remarks); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// -------- Daily events --------

const eventColumns = `id, date, event_name, event_description, completed, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*model.DailyEvent, error) {
	var e model.DailyEvent
	if err := row.Scan(&e.ID, &e.Date, &e.Name, &e.Description, &e.Completed, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// ListEvents returns events within r in date order.
func (p *Postgres) ListEvents(ctx context.Context, r model.DateRange) ([]model.DailyEvent, error) {
	var w where
	addRange(&w, "date", r)
	rows, err := p.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM daily_events`+w.sql()+` ORDER BY date, event_name`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DailyEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// CreateEvent inserts an event; a duplicate (date, name) yields apperr.ErrConflict.
func (p *Postgres) CreateEvent(ctx context.Context, e *model.DailyEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO daily_events (id, date, event_name, event_description, completed)
		VALUES ($1, $2::date, $3, $4, $5)
		RETURNING date, created_at, updated_at
	`, e.ID, dayArg(e.Date), e.Name, e.Description, e.Completed).Scan(&e.Date, &e.CreatedAt, &e.UpdatedAt)
	return translate(err, "event")
}

// UpdateEvent applies u; nil when the id is unknown.
func (p *Postgres) UpdateEvent(ctx context.Context, id string, u model.EventUpdate) (*model.DailyEvent, error) {
	if !validID(id) {
		return nil, nil
	}
	var date any
	if u.Date != nil {
		date = dayArg(*u.Date)
	}
	e, err := scanEvent(p.db.QueryRowContext(ctx, `
		UPDATE daily_events SET
			date              = COALESCE($2::date, date),
			event_name        = COALESCE($3, event_name),
			event_description = COALESCE($4, event_description),
			completed         = COALESCE($5, completed),
			updated_at        = NOW()
		WHERE id = $1
		RETURNING `+eventColumns, id, date, u.Name, u.Description, u.Completed))
	if err != nil {
		return nil, translate(err, "event")
	}
	return e, nil
}

// DeleteEvent removes an event; false when the id is unknown.
func (p *Postgres) DeleteEvent(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM daily_events WHERE id = $1`, id)
	return affected(res, err)
}

// -------- helpers --------

// where accumulates AND-ed conditions, rewriting each "?" to the next $n placeholder.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func addRange(w *where, column string, r model.DateRange) {
	if r.From != nil {
		w.add(column+" >= ?::date", dayArg(*r.From))
	}
	if r.To != nil {
		w.add(column+" <= ?::date", dayArg(*r.To))
	}
}

// dayArg sends a day as text so the session time zone cannot shift it.
func dayArg(t interface{ Format(string) string }) string {
	return t.Format(model.DayLayout)
}

func programArg(p *model.ProgramType) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// translate maps constraint violations onto the apperr taxonomy.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s %w", what, apperr.ErrConflict)
		case "23503":
			return fmt.Errorf("%s references a missing row: %w", what, apperr.ErrNotFound)
		case "23514":
			return apperr.ValidationError{Field: pgErr.ConstraintName, Message: pgErr.Message}
		}
	}
	return err
}
