package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is a Store backed by a pgx connection pool
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool. Close does not close the pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the tables if they do not exist
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error applying schema: %w", err)
	}
	return nil
}

func (s *Postgres) Close() error { return nil }

// translate maps driver errors onto the store's sentinel errors
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("error querying %s: %w", what, err)
}

const userColumns = `id, username, password, email, firstname, lastname, middlename, alternatename,
	idnumber, phone1, phone2, institution, department, address, city, country,
	description, descriptionformat, auth, timezone, lang, calendartype,
	force_password_change, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.Password, &u.Email, &u.FirstName, &u.LastName, &u.MiddleName, &u.AlternateName,
		&u.IDNumber, &u.Phone1, &u.Phone2, &u.Institution, &u.Department, &u.Address, &u.City, &u.Country,
		&u.Description, &u.DescriptionFormat, &u.Auth, &u.Timezone, &u.Lang, &u.CalendarType,
		&u.ForcePasswordChange, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (s *Postgres) UserByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (s *Postgres) UserByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 ORDER BY created_at, id LIMIT 1`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

func userArgs(u *User) []any {
	return []any{
		u.ID, u.Username, u.Password, u.Email, u.FirstName, u.LastName, u.MiddleName, u.AlternateName,
		u.IDNumber, u.Phone1, u.Phone2, u.Institution, u.Department, u.Address, u.City, u.Country,
		u.Description, u.DescriptionFormat, u.Auth, u.Timezone, u.Lang, u.CalendarType,
		u.ForcePasswordChange, u.CreatedAt, u.UpdatedAt,
	}
}

func (s *Postgres) InsertUser(ctx context.Context, u *User) error {
	newID(&u.ID)
	stampNow(&u.CreatedAt)
	stampNow(&u.UpdatedAt)
	query := `INSERT INTO users (` + userColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`
	_, err := s.pool.Exec(ctx, query, userArgs(u)...)
	return translate(err, "user")
}

func (s *Postgres) UpdateUser(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now()
	query := `
		UPDATE users SET
			username = $2, password = $3, email = $4, firstname = $5, lastname = $6,
			middlename = $7, alternatename = $8, idnumber = $9, phone1 = $10, phone2 = $11,
			institution = $12, department = $13, address = $14, city = $15, country = $16,
			description = $17, descriptionformat = $18, auth = $19, timezone = $20, lang = $21,
			calendartype = $22, force_password_change = $23, updated_at = $24
		WHERE id = $1
	`
	args := userArgs(u)
	args = append(args[:23], u.UpdatedAt)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return translate(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) CourseByShortName(ctx context.Context, shortname string) (*Course, error) {
	var c Course
	err := s.pool.QueryRow(ctx,
		`SELECT id, shortname, fullname, created_at FROM courses WHERE shortname = $1`, shortname,
	).Scan(&c.ID, &c.ShortName, &c.FullName, &c.CreatedAt)
	if err != nil {
		return nil, translate(err, "course")
	}
	return &c, nil
}

func (s *Postgres) InsertCourse(ctx context.Context, c *Course) error {
	newID(&c.ID)
	stampNow(&c.CreatedAt)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO courses (id, shortname, fullname, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.ShortName, c.FullName, c.CreatedAt,
	); err != nil {
		return translate(err, "course")
	}
	contextID := ""
	newID(&contextID)
	if _, err := tx.Exec(ctx,
		`INSERT INTO course_contexts (id, course_id) VALUES ($1, $2)`, contextID, c.ID,
	); err != nil {
		return translate(err, "course context")
	}
	return tx.Commit(ctx)
}

func (s *Postgres) CourseContext(ctx context.Context, courseID string) (*Context, error) {
	var c Context
	err := s.pool.QueryRow(ctx,
		`SELECT id, course_id FROM course_contexts WHERE course_id = $1`, courseID,
	).Scan(&c.ID, &c.CourseID)
	if err != nil {
		return nil, translate(err, "course context")
	}
	return &c, nil
}

func (s *Postgres) RoleByShortName(ctx context.Context, shortname string) (*Role, error) {
	var r Role
	err := s.pool.QueryRow(ctx,
		`SELECT id, shortname, name, description, archetype, sortorder FROM roles WHERE shortname = $1`, shortname,
	).Scan(&r.ID, &r.ShortName, &r.Name, &r.Description, &r.Archetype, &r.SortOrder)
	if err != nil {
		return nil, translate(err, "role")
	}
	return &r, nil
}

func (s *Postgres) InsertRole(ctx context.Context, r *Role) error {
	newID(&r.ID)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO roles (id, shortname, name, description, archetype, sortorder) VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.ShortName, r.Name, r.Description, r.Archetype, r.SortOrder,
	)
	return translate(err, "role")
}

func (s *Postgres) MaxRoleSortOrder(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(sortorder), 0) FROM roles`).Scan(&n); err != nil {
		return 0, translate(err, "role")
	}
	return n, nil
}

func (s *Postgres) RoleAssignment(ctx context.Context, roleID, contextID, userID string) (*RoleAssignment, error) {
	var ra RoleAssignment
	err := s.pool.QueryRow(ctx, `
		SELECT id, role_id, context_id, user_id, modified_at
		FROM role_assignments
		WHERE role_id = $1 AND context_id = $2 AND user_id = $3
	`, roleID, contextID, userID).Scan(&ra.ID, &ra.RoleID, &ra.ContextID, &ra.UserID, &ra.ModifiedAt)
	if err != nil {
		return nil, translate(err, "role assignment")
	}
	return &ra, nil
}

func (s *Postgres) InsertRoleAssignment(ctx context.Context, ra *RoleAssignment) error {
	newID(&ra.ID)
	stampNow(&ra.ModifiedAt)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO role_assignments (id, role_id, context_id, user_id, modified_at) VALUES ($1, $2, $3, $4, $5)`,
		ra.ID, ra.RoleID, ra.ContextID, ra.UserID, ra.ModifiedAt,
	)
	return translate(err, "role assignment")
}

func (s *Postgres) GroupByName(ctx context.Context, courseID, name string) (*Group, error) {
	var g Group
	err := s.pool.QueryRow(ctx,
		`SELECT id, course_id, name, created_at FROM groups WHERE course_id = $1 AND name = $2`, courseID, name,
	).Scan(&g.ID, &g.CourseID, &g.Name, &g.CreatedAt)
	if err != nil {
		return nil, translate(err, "group")
	}
	return &g, nil
}

func (s *Postgres) InsertGroup(ctx context.Context, g *Group) error {
	newID(&g.ID)
	stampNow(&g.CreatedAt)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO groups (id, course_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		g.ID, g.CourseID, g.Name, g.CreatedAt,
	)
	return translate(err, "group")
}

func (s *Postgres) GroupMember(ctx context.Context, groupID, userID string) (*GroupMember, error) {
	var m GroupMember
	err := s.pool.QueryRow(ctx,
		`SELECT id, group_id, user_id, added_at FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID,
	).Scan(&m.ID, &m.GroupID, &m.UserID, &m.AddedAt)
	if err != nil {
		return nil, translate(err, "group member")
	}
	return &m, nil
}

func (s *Postgres) InsertGroupMember(ctx context.Context, m *GroupMember) error {
	newID(&m.ID)
	stampNow(&m.AddedAt)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO group_members (id, group_id, user_id, added_at) VALUES ($1, $2, $3, $4)`,
		m.ID, m.GroupID, m.UserID, m.AddedAt,
	)
	return translate(err, "group member")
}

func (s *Postgres) EnrolMethod(ctx context.Context, courseID, roleID, method string) (*EnrolMethod, error) {
	var e EnrolMethod
	err := s.pool.QueryRow(ctx, `
		SELECT id, course_id, role_id, method, created_at
		FROM enrol_methods
		WHERE course_id = $1 AND role_id = $2 AND method = $3
	`, courseID, roleID, method).Scan(&e.ID, &e.CourseID, &e.RoleID, &e.Method, &e.CreatedAt)
	if err != nil {
		return nil, translate(err, "enrol method")
	}
	return &e, nil
}

func (s *Postgres) InsertEnrolMethod(ctx context.Context, e *EnrolMethod) error {
	newID(&e.ID)
	stampNow(&e.CreatedAt)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrol_methods (id, course_id, role_id, method, created_at) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.CourseID, e.RoleID, e.Method, e.CreatedAt,
	)
	return translate(err, "enrol method")
}

func (s *Postgres) Enrolment(ctx context.Context, enrolMethodID, userID string) (*Enrolment, error) {
	var (
		e       Enrolment
		timeEnd *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, enrol_method_id, user_id, time_start, time_end, created_at, updated_at
		FROM enrolments
		WHERE enrol_method_id = $1 AND user_id = $2
	`, enrolMethodID, userID).Scan(&e.ID, &e.EnrolMethodID, &e.UserID, &e.TimeStart, &timeEnd, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, translate(err, "enrolment")
	}
	if timeEnd != nil {
		e.TimeEnd = *timeEnd
	}
	return &e, nil
}

// nullTime stores the zero time as NULL
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Postgres) InsertEnrolment(ctx context.Context, e *Enrolment) error {
	newID(&e.ID)
	stampNow(&e.CreatedAt)
	stampNow(&e.UpdatedAt)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrolments (id, enrol_method_id, user_id, time_start, time_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.EnrolMethodID, e.UserID, e.TimeStart, nullTime(e.TimeEnd), e.CreatedAt, e.UpdatedAt)
	return translate(err, "enrolment")
}

func (s *Postgres) UpdateEnrolment(ctx context.Context, e *Enrolment) error {
	e.UpdatedAt = time.Now()
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrolments SET time_start = $2, time_end = $3, updated_at = $4 WHERE id = $1`,
		e.ID, e.TimeStart, nullTime(e.TimeEnd), e.UpdatedAt,
	)
	if err != nil {
		return translate(err, "enrolment")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) Resource(ctx context.Context, courseID, name string) (*Resource, error) {
	var r Resource
	err := s.pool.QueryRow(ctx,
		`SELECT id, course_id, name, kind, content, updated_at FROM resources WHERE course_id = $1 AND name = $2`,
		courseID, name,
	).Scan(&r.ID, &r.CourseID, &r.Name, &r.Kind, &r.Content, &r.UpdatedAt)
	if err != nil {
		return nil, translate(err, "resource")
	}
	return &r, nil
}

func (s *Postgres) InsertResource(ctx context.Context, r *Resource) error {
	newID(&r.ID)
	stampNow(&r.UpdatedAt)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO resources (id, course_id, name, kind, content, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.CourseID, r.Name, r.Kind, r.Content, r.UpdatedAt,
	)
	return translate(err, "resource")
}

func (s *Postgres) UpdateResource(ctx context.Context, r *Resource) error {
	r.UpdatedAt = time.Now()
	tag, err := s.pool.Exec(ctx,
		`UPDATE resources SET kind = $2, content = $3, updated_at = $4 WHERE id = $1`,
		r.ID, r.Kind, r.Content, r.UpdatedAt,
	)
	if err != nil {
		return translate(err, "resource")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func stampNow(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

var _ Store = (*Postgres)(nil)
