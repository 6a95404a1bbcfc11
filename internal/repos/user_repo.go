package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cafeorders/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const (
	studentCols = `id, mobile, name, email, otp, otp_expiry`
	adminCols   = `id, mobile, name, password_hash, otp, otp_expiry`
)

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *UserRepo) StudentByMobile(ctx context.Context, mobile string) (*domain.Student, error) {
	var s domain.Student
	if err := r.DB.GetContext(ctx, &s, r.DB.Rebind(`SELECT `+studentCols+` FROM students WHERE mobile = ?`), mobile); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *UserRepo) StudentByID(ctx context.Context, id int64) (*domain.Student, error) {
	var s domain.Student
	if err := r.DB.GetContext(ctx, &s, r.DB.Rebind(`SELECT `+studentCols+` FROM students WHERE id = ?`), id); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// EnsureStudent returns the student for mobile, creating one if needed.
func (r *UserRepo) EnsureStudent(ctx context.Context, mobile string) (*domain.Student, error) {
	if _, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
	  INSERT INTO students(mobile) VALUES(?)
	  ON CONFLICT(mobile) DO NOTHING`), mobile); err != nil {
		return nil, err
	}
	return r.StudentByMobile(ctx, mobile)
}

func (r *UserRepo) SetStudentOTP(ctx context.Context, id int64, otp *string, expiry *time.Time) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE students SET otp = ?, otp_expiry = ? WHERE id = ?`), otp, dbTimePtr(expiry), id)
	return err
}

func (r *UserRepo) UpdateStudentProfile(ctx context.Context, id int64, name, email *string) (*domain.Student, error) {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
	  UPDATE students SET name = COALESCE(?, name), email = COALESCE(?, email) WHERE id = ?`), name, email, id)
	if err != nil {
		return nil, err
	}
	return r.StudentByID(ctx, id)
}

func (r *UserRepo) AdminByMobile(ctx context.Context, mobile string) (*domain.Admin, error) {
	var a domain.Admin
	if err := r.DB.GetContext(ctx, &a, r.DB.Rebind(`SELECT `+adminCols+` FROM admins WHERE mobile = ?`), mobile); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *UserRepo) AdminByID(ctx context.Context, id int64) (*domain.Admin, error) {
	var a domain.Admin
	if err := r.DB.GetContext(ctx, &a, r.DB.Rebind(`SELECT `+adminCols+` FROM admins WHERE id = ?`), id); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// CreateAdmin inserts an admin unless the mobile is already taken.
func (r *UserRepo) CreateAdmin(ctx context.Context, mobile, name, hash string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
	  INSERT INTO admins(mobile, name, password_hash) VALUES(?, ?, ?)
	  ON CONFLICT(mobile) DO NOTHING`), mobile, name, hash)
	return err
}

func (r *UserRepo) SetAdminOTP(ctx context.Context, id int64, otp *string, expiry *time.Time) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE admins SET otp = ?, otp_expiry = ? WHERE id = ?`), otp, dbTimePtr(expiry), id)
	return err
}

func (r *UserRepo) SetAdminPassword(ctx context.Context, id int64, hash string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE admins SET password_hash = ? WHERE id = ?`), hash, id)
	return err
}

// ---------- Sessions ----------

type SessionRow struct {
	ID        string      `db:"id"`
	Role      domain.Role `db:"role"`
	UserID    int64       `db:"user_id"`
	CreatedAt time.Time   `db:"created_at"`
	LastSeen  time.Time   `db:"last_seen"`
	ExpiresAt time.Time   `db:"expires_at"`
}

func (r *UserRepo) CreateSession(ctx context.Context, s SessionRow) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
	  INSERT INTO sessions(id, role, user_id, created_at, last_seen, expires_at)
	  VALUES(?, ?, ?, ?, ?, ?)`),
		s.ID, s.Role, s.UserID, dbTime(s.CreatedAt), dbTime(s.LastSeen), dbTime(s.ExpiresAt))
	return err
}

func (r *UserRepo) Session(ctx context.Context, sid string) (*SessionRow, error) {
	var s SessionRow
	err := r.DB.GetContext(ctx, &s, r.DB.Rebind(`
	  SELECT id, role, user_id, created_at, last_seen, expires_at FROM sessions WHERE id = ?`), sid)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *UserRepo) TouchSession(ctx context.Context, sid string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE sessions SET last_seen = ? WHERE id = ?`), dbTime(at), sid)
	return err
}

func (r *UserRepo) DeleteSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sessions WHERE id = ?`), sid)
	return err
}

func dbTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := dbTime(*t)
	return &v
}
