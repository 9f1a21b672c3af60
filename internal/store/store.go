// Package store persists the entities created by an import: users, courses
// and the roles, groups and enrolments that tie them together.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups that match no record
var ErrNotFound = errors.New("record not found")

// User is a site account
type User struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	Password            string    `json:"-"`
	Email               string    `json:"email"`
	FirstName           string    `json:"firstname"`
	LastName            string    `json:"lastname"`
	MiddleName          string    `json:"middlename,omitempty"`
	AlternateName       string    `json:"alternatename,omitempty"`
	IDNumber            string    `json:"idnumber,omitempty"`
	Phone1              string    `json:"phone1,omitempty"`
	Phone2              string    `json:"phone2,omitempty"`
	Institution         string    `json:"institution,omitempty"`
	Department          string    `json:"department,omitempty"`
	Address             string    `json:"address,omitempty"`
	City                string    `json:"city,omitempty"`
	Country             string    `json:"country,omitempty"`
	Description         string    `json:"description,omitempty"`
	DescriptionFormat   string    `json:"descriptionformat,omitempty"`
	Auth                string    `json:"auth"`
	Timezone            string    `json:"timezone"`
	Lang                string    `json:"lang"`
	CalendarType        string    `json:"calendartype"`
	ForcePasswordChange bool      `json:"forcePasswordChange"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Course is a course that users are enrolled in
type Course struct {
	ID        string    `json:"id"`
	ShortName string    `json:"shortname"`
	FullName  string    `json:"fullname"`
	CreatedAt time.Time `json:"createdAt"`
}

// Context is the permission scope of a course; role assignments hang off it
type Context struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
}

// Role is a named set of capabilities such as "student"
type Role struct {
	ID          string `json:"id"`
	ShortName   string `json:"shortname"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Archetype   string `json:"archetype"`
	SortOrder   int    `json:"sortorder"`
}

// RoleAssignment grants a role to a user within a context
type RoleAssignment struct {
	ID         string    `json:"id"`
	RoleID     string    `json:"roleId"`
	ContextID  string    `json:"contextId"`
	UserID     string    `json:"userId"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Group is a named subset of a course's participants
type Group struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupMember puts a user in a group
type GroupMember struct {
	ID      string    `json:"id"`
	GroupID string    `json:"groupId"`
	UserID  string    `json:"userId"`
	AddedAt time.Time `json:"addedAt"`
}

// EnrolMethod is an enrolment instance of a course for one role and method
type EnrolMethod struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	RoleID    string    `json:"roleId"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"createdAt"`
}

// Enrolment enrols a user through an enrol method. A zero TimeEnd means open-ended.
type Enrolment struct {
	ID            string    `json:"id"`
	EnrolMethodID string    `json:"enrolMethodId"`
	UserID        string    `json:"userId"`
	TimeStart     time.Time `json:"timeStart"`
	TimeEnd       time.Time `json:"timeEnd"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Resource is a course page holding generated content, such as login details
type Resource struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the entity store. Lookups return ErrNotFound when nothing
// matches; inserts assign an ID when the entity has none.
type Store interface {
	UserByUsername(ctx context.Context, username string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	InsertUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error

	CourseByShortName(ctx context.Context, shortname string) (*Course, error)
	// InsertCourse creates the course and its context
	InsertCourse(ctx context.Context, c *Course) error
	CourseContext(ctx context.Context, courseID string) (*Context, error)

	RoleByShortName(ctx context.Context, shortname string) (*Role, error)
	InsertRole(ctx context.Context, r *Role) error
	MaxRoleSortOrder(ctx context.Context) (int, error)

	RoleAssignment(ctx context.Context, roleID, contextID, userID string) (*RoleAssignment, error)
	InsertRoleAssignment(ctx context.Context, ra *RoleAssignment) error

	GroupByName(ctx context.Context, courseID, name string) (*Group, error)
	InsertGroup(ctx context.Context, g *Group) error

	GroupMember(ctx context.Context, groupID, userID string) (*GroupMember, error)
	InsertGroupMember(ctx context.Context, m *GroupMember) error

	EnrolMethod(ctx context.Context, courseID, roleID, method string) (*EnrolMethod, error)
	InsertEnrolMethod(ctx context.Context, e *EnrolMethod) error

	Enrolment(ctx context.Context, enrolMethodID, userID string) (*Enrolment, error)
	InsertEnrolment(ctx context.Context, e *Enrolment) error
	UpdateEnrolment(ctx context.Context, e *Enrolment) error

	Resource(ctx context.Context, courseID, name string) (*Resource, error)
	InsertResource(ctx context.Context, r *Resource) error
	UpdateResource(ctx context.Context, r *Resource) error

	Close() error
}
