package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicate is returned when an insert would break a natural-key constraint
var ErrDuplicate = errors.New("duplicate record")

// table keeps rows in insertion order so that lookups matching several rows
// return the oldest one.
type table[T any] struct {
	rows []*T
	id   func(*T) string
}

func (t *table[T]) find(pred func(*T) bool) (*T, error) {
	for _, v := range t.rows {
		if pred(v) {
			c := *v
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (t *table[T]) insert(v *T) {
	c := *v
	t.rows = append(t.rows, &c)
}

func (t *table[T]) replace(v *T) error {
	for i, row := range t.rows {
		if t.id(row) == t.id(v) {
			c := *v
			t.rows[i] = &c
			return nil
		}
	}
	return ErrNotFound
}

func (t *table[T]) exists(pred func(*T) bool) bool {
	_, err := t.find(pred)
	return err == nil
}

// Memory is an in-process Store used by preview runs and tests. Returned
// entities are copies.
type Memory struct {
	mu sync.RWMutex

	users       table[User]
	courses     table[Course]
	contexts    table[Context]
	roles       table[Role]
	assignments table[RoleAssignment]
	groups      table[Group]
	members     table[GroupMember]
	methods     table[EnrolMethod]
	enrolments  table[Enrolment]
	resources   table[Resource]
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		users:       table[User]{id: func(v *User) string { return v.ID }},
		courses:     table[Course]{id: func(v *Course) string { return v.ID }},
		contexts:    table[Context]{id: func(v *Context) string { return v.ID }},
		roles:       table[Role]{id: func(v *Role) string { return v.ID }},
		assignments: table[RoleAssignment]{id: func(v *RoleAssignment) string { return v.ID }},
		groups:      table[Group]{id: func(v *Group) string { return v.ID }},
		members:     table[GroupMember]{id: func(v *GroupMember) string { return v.ID }},
		methods:     table[EnrolMethod]{id: func(v *EnrolMethod) string { return v.ID }},
		enrolments:  table[Enrolment]{id: func(v *Enrolment) string { return v.ID }},
		resources:   table[Resource]{id: func(v *Resource) string { return v.ID }},
	}
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

// read runs a lookup under the read lock
func read[T any](mu *sync.RWMutex, t *table[T], pred func(*T) bool) (*T, error) {
	mu.RLock()
	defer mu.RUnlock()
	return t.find(pred)
}

func (s *Memory) UserByUsername(_ context.Context, username string) (*User, error) {
	return read(&s.mu, &s.users, func(u *User) bool { return u.Username == username })
}

func (s *Memory) UserByEmail(_ context.Context, email string) (*User, error) {
	return read(&s.mu, &s.users, func(u *User) bool { return email != "" && u.Email == email })
}

func (s *Memory) InsertUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users.exists(func(v *User) bool { return v.Username == u.Username }) {
		return fmt.Errorf("%w: username %q", ErrDuplicate, u.Username)
	}
	newID(&u.ID)
	stampNow(&u.CreatedAt)
	stampNow(&u.UpdatedAt)
	s.users.insert(u)
	return nil
}

func (s *Memory) UpdateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users.exists(func(v *User) bool { return v.ID != u.ID && v.Username == u.Username }) {
		return fmt.Errorf("%w: username %q", ErrDuplicate, u.Username)
	}
	u.UpdatedAt = time.Now()
	return s.users.replace(u)
}

func (s *Memory) CourseByShortName(_ context.Context, shortname string) (*Course, error) {
	return read(&s.mu, &s.courses, func(c *Course) bool { return c.ShortName == shortname })
}

func (s *Memory) InsertCourse(_ context.Context, c *Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.courses.exists(func(v *Course) bool { return v.ShortName == c.ShortName }) {
		return fmt.Errorf("%w: course %q", ErrDuplicate, c.ShortName)
	}
	newID(&c.ID)
	stampNow(&c.CreatedAt)
	s.courses.insert(c)
	s.contexts.insert(&Context{ID: uuid.New().String(), CourseID: c.ID})
	return nil
}

func (s *Memory) CourseContext(_ context.Context, courseID string) (*Context, error) {
	return read(&s.mu, &s.contexts, func(c *Context) bool { return c.CourseID == courseID })
}

// DeleteCourseContext removes the context of a course
func (s *Memory) DeleteCourseContext(courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.contexts.rows[:0]
	for _, c := range s.contexts.rows {
		if c.CourseID != courseID {
			kept = append(kept, c)
		}
	}
	s.contexts.rows = kept
}

func (s *Memory) RoleByShortName(_ context.Context, shortname string) (*Role, error) {
	return read(&s.mu, &s.roles, func(r *Role) bool { return r.ShortName == shortname })
}

func (s *Memory) InsertRole(_ context.Context, r *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles.exists(func(v *Role) bool { return v.ShortName == r.ShortName }) {
		return fmt.Errorf("%w: role %q", ErrDuplicate, r.ShortName)
	}
	newID(&r.ID)
	s.roles.insert(r)
	return nil
}

func (s *Memory) MaxRoleSortOrder(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.roles.rows {
		n = max(n, r.SortOrder)
	}
	return n, nil
}

func (s *Memory) RoleAssignment(_ context.Context, roleID, contextID, userID string) (*RoleAssignment, error) {
	return read(&s.mu, &s.assignments, func(ra *RoleAssignment) bool {
		return ra.RoleID == roleID && ra.ContextID == contextID && ra.UserID == userID
	})
}

func (s *Memory) InsertRoleAssignment(_ context.Context, ra *RoleAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	newID(&ra.ID)
	stampNow(&ra.ModifiedAt)
	s.assignments.insert(ra)
	return nil
}

func (s *Memory) GroupByName(_ context.Context, courseID, name string) (*Group, error) {
	return read(&s.mu, &s.groups, func(g *Group) bool { return g.CourseID == courseID && g.Name == name })
}

func (s *Memory) InsertGroup(_ context.Context, g *Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	newID(&g.ID)
	stampNow(&g.CreatedAt)
	s.groups.insert(g)
	return nil
}

func (s *Memory) GroupMember(_ context.Context, groupID, userID string) (*GroupMember, error) {
	return read(&s.mu, &s.members, func(m *GroupMember) bool { return m.GroupID == groupID && m.UserID == userID })
}

func (s *Memory) InsertGroupMember(_ context.Context, m *GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	newID(&m.ID)
	stampNow(&m.AddedAt)
	s.members.insert(m)
	return nil
}

func (s *Memory) EnrolMethod(_ context.Context, courseID, roleID, method string) (*EnrolMethod, error) {
	return read(&s.mu, &s.methods, func(e *EnrolMethod) bool {
		return e.CourseID == courseID && e.RoleID == roleID && e.Method == method
	})
}

func (s *Memory) InsertEnrolMethod(_ context.Context, e *EnrolMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	newID(&e.ID)
	stampNow(&e.CreatedAt)
	s.methods.insert(e)
	return nil
}

func (s *Memory) Enrolment(_ context.Context, enrolMethodID, userID string) (*Enrolment, error) {
	return read(&s.mu, &s.enrolments, func(e *Enrolment) bool {
		return e.EnrolMethodID == enrolMethodID && e.UserID == userID
	})
}

func (s *Memory) InsertEnrolment(_ context.Context, e *Enrolment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	newID(&e.ID)
	stampNow(&e.CreatedAt)
	stampNow(&e.UpdatedAt)
	s.enrolments.insert(e)
	return nil
}

func (s *Memory) UpdateEnrolment(_ context.Context, e *Enrolment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.UpdatedAt = time.Now()
	return s.enrolments.replace(e)
}

func (s *Memory) Resource(_ context.Context, courseID, name string) (*Resource, error) {
	return read(&s.mu, &s.resources, func(r *Resource) bool { return r.CourseID == courseID && r.Name == name })
}

func (s *Memory) InsertResource(_ context.Context, r *Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	newID(&r.ID)
	stampNow(&r.UpdatedAt)
	s.resources.insert(r)
	return nil
}

func (s *Memory) UpdateResource(_ context.Context, r *Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.UpdatedAt = time.Now()
	return s.resources.replace(r)
}

// Counts reports the number of stored entities per table
func (s *Memory) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"users":            len(s.users.rows),
		"courses":          len(s.courses.rows),
		"roles":            len(s.roles.rows),
		"role_assignments": len(s.assignments.rows),
		"groups":           len(s.groups.rows),
		"group_members":    len(s.members.rows),
		"enrol_methods":    len(s.methods.rows),
		"enrolments":       len(s.enrolments.rows),
		"resources":        len(s.resources.rows),
	}
}

func (s *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
