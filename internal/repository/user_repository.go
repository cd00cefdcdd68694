package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"

	"github.com/shoply/catalog-api/internal/model"
	"github.com/shoply/catalog-api/internal/utils"
)

// UserRepo owns the `users` table: registration, credential verification
// and profile maintenance.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// CreateUserParams carries the registration input.  Password is the
// plaintext from the request; it is hashed here and never stored.
type CreateUserParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	UserName  string
	Gender    string
	DOB       string
	Phone     string
}

const userColumns = "id,email,password_hash,first_name,last_name,user_name,gender,dob,phone,is_active,last_login_at,created_at,updated_at"

// Create inserts a user and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, p CreateUserParams, cost int) (model.User, error) {
	email := NormalizeEmail(p.Email)
	hash, err := utils.HashPassword(p.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, first_name, last_name, user_name, gender, dob, phone) VALUES (?,?,?,?,?,?,?,?)",
		email, hash, p.FirstName, p.LastName, p.UserName, p.Gender, p.DOB, p.Phone)
	if err != nil {
		// MySQL 1062 = duplicate entry on the unique email index.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		NormalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// Authenticate verifies an email/password pair.  Every failure cause maps
// to the same ErrInvalidCredentials so callers cannot tell whether the
// account exists.  On success the last_login_at column is refreshed
// best-effort; a failed refresh never fails the login.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login_at=UTC_TIMESTAMP() WHERE id=?", u.ID); err != nil {
		log.Printf("users: refresh last_login_at failed for id=%d: %v", u.ID, err)
	}
	return u, nil
}

// UpdateProfileParams carries the mutable profile fields.  Nil pointers
// mean "leave unchanged".
type UpdateProfileParams struct {
	FirstName *string
	LastName  *string
	UserName  *string
	Gender    *string
	DOB       *string
	Phone     *string
}

// UpdateProfile applies the non-nil fields and returns the updated row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p UpdateProfileParams) (model.User, error) {
	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+"=?")
			args = append(args, *v)
		}
	}
	add("first_name", p.FirstName)
	add("last_name", p.LastName)
	add("user_name", p.UserName)
	add("gender", p.Gender)
	add("dob", p.DOB)
	add("phone", p.Phone)
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Deactivate soft-deletes an account.  The row stays so audit records
// keep a valid owner; the account simply stops authenticating.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=0 WHERE id=?", id)
	return err
}

// NormalizeEmail lower-cases and trims an email so that lookups and the
// unique index agree on one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanUser(row rowScanner) (model.User, error) {
	var (
		u                             model.User
		firstName, lastName, userName sql.NullString
		gender, dob, phone            sql.NullString
		lastLogin                     sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash,
		&firstName, &lastName, &userName, &gender, &dob, &phone,
		&u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.UserName = userName.String
	u.Gender = gender.String
	u.DOB = dob.String
	u.Phone = phone.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}
