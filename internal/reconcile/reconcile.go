// Package reconcile upserts the user, course enrolments and groups described
// by one templated record and reports what it did as a list of events.
package reconcile

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/importusers/import-service/internal/store"
	"github.com/importusers/import-service/internal/types"
)

// StudentRole is the role given to imported users in their courses
const StudentRole = "student"

var (
	invalidUsernameChars = regexp.MustCompile(`[^a-z0-9_.-]+`)
	courseField          = regexp.MustCompile(`^course(\d+)_shortname$`)
)

// CourseRef identifies a course the user was enrolled in and the groups
// joined there
type CourseRef struct {
	ID        string   `json:"id"`
	ShortName string   `json:"shortname"`
	Groups    []string `json:"groups,omitempty"`
}

// Result is the outcome of reconciling one record
type Result struct {
	Events  []Event       `json:"events"`
	User    *store.User   `json:"user,omitempty"`
	Created bool          `json:"created"`
	Courses []CourseRef   `json:"courses,omitempty"`
	Record  *types.Record `json:"-"`
}

func (r *Result) add(e Event) {
	r.Events = append(r.Events, e)
}

// Failed reports whether any event records a failure
func (r *Result) Failed() bool {
	for _, e := range r.Events {
		if e.Kind.IsError() {
			return true
		}
	}
	return false
}

// Reconciler applies records to a Store. Records must be reconciled one at a
// time in row order, since a row may depend on entities created by earlier rows.
type Reconciler struct {
	store  store.Store
	opts   Options
	logger *zerolog.Logger
}

// New creates a Reconciler. A nil logger discards output.
func New(s store.Store, opts Options, logger *zerolog.Logger) *Reconciler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{store: s, opts: opts, logger: logger}
}

// Reconcile creates or updates the user of rec and enrols it in the courses
// and groups the record names. passwordHash replaces the stored password when
// not empty.
func (r *Reconciler) Reconcile(ctx context.Context, rec *types.Record, passwordHash string) *Result {
	res := &Result{Record: rec}

	rawUsername := rec.Username()
	if rawUsername == "" {
		res.add(Event{Kind: NoUsername, Sheet: rec.SheetName, Row: rec.Row})
		return res
	}
	username := strings.ToLower(rawUsername)

	existing, byEmail, err := r.findUser(ctx, rawUsername, username, rec.Get("email"))
	if err != nil {
		r.logger.Error().Err(err).Str("username", username).Msg("User lookup failed")
		res.add(Event{Kind: ErrorAddingUser, Err: err})
		return res
	}

	switch {
	case existing != nil && r.opts.UploadAction == AddNewOnly:
		res.add(Event{Kind: UserSkipped})
		return res
	case existing == nil && r.opts.UploadAction == UpdateExisting:
		res.add(Event{Kind: MissingUsername, Username: rawUsername, Sheet: rec.SheetName, Row: rec.Row})
		return res
	}

	isNew := existing == nil
	if r.opts.FixUsernames.Applies(isNew) {
		if clean := invalidUsernameChars.ReplaceAllString(username, ""); clean != "" {
			username = clean
		}
	}

	user := existing
	if isNew {
		user = &store.User{}
	}
	if byEmail {
		r.logger.Info().Str("from", user.Username).Str("to", username).Msg("Renaming account matched by email")
	}
	user.Username = username
	if passwordHash != "" {
		user.Password = passwordHash
	}
	r.applyFields(user, rec)
	if r.opts.ChangePassword.Applies(isNew) {
		user.ForcePasswordChange = true
	}

	if isNew {
		if err := r.store.InsertUser(ctx, user); err != nil {
			r.logger.Error().Err(err).Str("username", username).Msg("Failed to add user")
			res.add(Event{Kind: ErrorAddingUser, Err: err})
			return res
		}
		res.add(Event{Kind: AddedUser})
	} else {
		if err := r.store.UpdateUser(ctx, user); err != nil {
			r.logger.Error().Err(err).Str("username", username).Msg("Failed to update user")
			res.add(Event{Kind: ErrorAddingUser, Err: err})
			return res
		}
		res.add(Event{Kind: UserUpdated})
	}
	res.User = user
	res.Created = isNew

	for _, slot := range courseSlots(rec) {
		r.enrol(ctx, res, user, slot)
	}
	return res
}

// findUser selects at most one existing account: an email match when
// UniqueEmail is Yes, then the raw username, then the lowercased username,
// then an email match when UniqueEmail is NewUsersOnly.
func (r *Reconciler) findUser(ctx context.Context, rawUsername, username, email string) (*store.User, bool, error) {
	lookups := []struct {
		byEmail bool
		find    func() (*store.User, error)
	}{
		{true, func() (*store.User, error) {
			if r.opts.UniqueEmail != Yes || email == "" {
				return nil, store.ErrNotFound
			}
			return r.store.UserByEmail(ctx, email)
		}},
		{false, func() (*store.User, error) { return r.store.UserByUsername(ctx, rawUsername) }},
		{false, func() (*store.User, error) {
			if username == rawUsername {
				return nil, store.ErrNotFound
			}
			return r.store.UserByUsername(ctx, username)
		}},
		{true, func() (*store.User, error) {
			if r.opts.UniqueEmail != NewUsersOnly || email == "" {
				return nil, store.ErrNotFound
			}
			return r.store.UserByEmail(ctx, email)
		}},
	}

	for _, l := range lookups {
		u, err := l.find()
		if err == nil {
			return u, l.byEmail, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, err
		}
	}
	return nil, false, nil
}

// applyFields copies the non-empty allow-listed fields of rec onto u and
// fills the locale fields from defaults when both are empty.
func (r *Reconciler) applyFields(u *store.User, rec *types.Record) {
	fields := []struct {
		name   string
		target *string
		def    string
	}{
		{"email", &u.Email, ""},
		{"firstname", &u.FirstName, ""},
		{"lastname", &u.LastName, ""},
		{"middlename", &u.MiddleName, ""},
		{"alternatename", &u.AlternateName, ""},
		{"idnumber", &u.IDNumber, ""},
		{"phone1", &u.Phone1, ""},
		{"phone2", &u.Phone2, ""},
		{"institution", &u.Institution, ""},
		{"department", &u.Department, ""},
		{"address", &u.Address, ""},
		{"city", &u.City, ""},
		{"country", &u.Country, ""},
		{"description", &u.Description, r.opts.DescriptionText},
		{"descriptionformat", &u.DescriptionFormat, r.opts.DescriptionFormat},
		{"auth", &u.Auth, r.opts.AuthMethod},
		{"timezone", &u.Timezone, r.opts.Timezone},
		{"lang", &u.Lang, r.opts.Language},
		{"calendartype", &u.CalendarType, r.opts.CalendarType},
	}
	for _, f := range fields {
		if v := rec.Get(f.name); v != "" {
			*f.target = v
		} else if *f.target == "" {
			*f.target = f.def
		}
	}
}

// courseSlot is one numbered course of a record with the groups of the same number
type courseSlot struct {
	n         int
	shortname string
	groups    []string
}

// courseSlots returns the courseN_shortname fields of rec in ascending N.
// A groupsN_name value may list several comma-separated groups.
func courseSlots(rec *types.Record) []courseSlot {
	var slots []courseSlot
	for _, name := range rec.Names() {
		m := courseField.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		shortname := strings.TrimSpace(rec.Get(name))
		if shortname == "" {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slot := courseSlot{n: n, shortname: shortname}
		for _, g := range strings.Split(rec.Get("groups"+m[1]+"_name"), ",") {
			if g = strings.TrimSpace(g); g != "" {
				slot.groups = append(slot.groups, g)
			}
		}
		slots = append(slots, slot)
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].n < slots[j].n })
	return slots
}

func (r *Reconciler) enrol(ctx context.Context, res *Result, user *store.User, slot courseSlot) {
	course, err := r.store.CourseByShortName(ctx, slot.shortname)
	if err != nil {
		res.add(Event{Kind: MissingCourse, Ref: slot.shortname, Err: err})
		return
	}
	courseCtx, err := r.store.CourseContext(ctx, course.ID)
	if err != nil {
		res.add(Event{Kind: MissingCourseContext, Ref: slot.shortname, Err: err})
		return
	}
	ref := CourseRef{ID: course.ID, ShortName: course.ShortName}
	defer func() { res.Courses = append(res.Courses, ref) }()

	role, created, err := r.studentRole(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to create student role")
		res.add(Event{Kind: ErrorAddingStudentRole, Err: err})
		return
	}
	if created {
		res.add(Event{Kind: AddedStudentRole})
	}

	_, created, err = getOrCreate(ctx,
		func(ctx context.Context) (*store.RoleAssignment, error) {
			return r.store.RoleAssignment(ctx, role.ID, courseCtx.ID, user.ID)
		},
		func(ctx context.Context) (*store.RoleAssignment, error) {
			ra := &store.RoleAssignment{RoleID: role.ID, ContextID: courseCtx.ID, UserID: user.ID, ModifiedAt: r.opts.Now()}
			return ra, r.store.InsertRoleAssignment(ctx, ra)
		},
		nil,
	)
	switch {
	case err != nil:
		res.add(Event{Kind: ErrorAssigningStudentRole, Ref: slot.shortname, Err: err})
	case created:
		res.add(Event{Kind: AssignedStudentRole, Ref: slot.shortname})
	}

	for _, name := range slot.groups {
		if r.joinGroup(ctx, res, user, course, name) {
			ref.Groups = append(ref.Groups, name)
		}
	}

	method, created, err := getOrCreate(ctx,
		func(ctx context.Context) (*store.EnrolMethod, error) {
			return r.store.EnrolMethod(ctx, course.ID, role.ID, r.opts.AuthMethod)
		},
		func(ctx context.Context) (*store.EnrolMethod, error) {
			m := &store.EnrolMethod{CourseID: course.ID, RoleID: role.ID, Method: r.opts.AuthMethod, CreatedAt: r.opts.Now()}
			return m, r.store.InsertEnrolMethod(ctx, m)
		},
		nil,
	)
	if err != nil {
		res.add(Event{Kind: ErrorAddingEnrolMethod, Ref: slot.shortname, Err: err})
		return
	}
	if created {
		res.add(Event{Kind: AddedEnrolMethod, Ref: slot.shortname})
	}

	now := r.opts.Now()
	_, created, err = getOrCreate(ctx,
		func(ctx context.Context) (*store.Enrolment, error) {
			return r.store.Enrolment(ctx, method.ID, user.ID)
		},
		func(ctx context.Context) (*store.Enrolment, error) {
			e := &store.Enrolment{EnrolMethodID: method.ID, UserID: user.ID, TimeStart: now, CreatedAt: now}
			return e, r.store.InsertEnrolment(ctx, e)
		},
		func(ctx context.Context, e *store.Enrolment) error {
			e.TimeStart = now
			e.TimeEnd = time.Time{}
			return r.store.UpdateEnrolment(ctx, e)
		},
	)
	switch {
	case err != nil:
		res.add(Event{Kind: ErrorEnrollingUser, Ref: slot.shortname, Err: err})
	case created:
		res.add(Event{Kind: UserEnrolled, Ref: slot.shortname})
	default:
		res.add(Event{Kind: UserAlreadyEnrolled, Ref: slot.shortname})
	}
}

// joinGroup adds user to the named group of course and reports success
func (r *Reconciler) joinGroup(ctx context.Context, res *Result, user *store.User, course *store.Course, name string) bool {
	group, created, err := getOrCreate(ctx,
		func(ctx context.Context) (*store.Group, error) {
			return r.store.GroupByName(ctx, course.ID, name)
		},
		func(ctx context.Context) (*store.Group, error) {
			g := &store.Group{CourseID: course.ID, Name: name, CreatedAt: r.opts.Now()}
			return g, r.store.InsertGroup(ctx, g)
		},
		nil,
	)
	if err != nil {
		res.add(Event{Kind: ErrorAddingGroup, Ref: name, Err: err})
		return false
	}
	if created {
		res.add(Event{Kind: AddedGroup, Ref: name})
	}

	_, created, err = getOrCreate(ctx,
		func(ctx context.Context) (*store.GroupMember, error) {
			return r.store.GroupMember(ctx, group.ID, user.ID)
		},
		func(ctx context.Context) (*store.GroupMember, error) {
			m := &store.GroupMember{GroupID: group.ID, UserID: user.ID, AddedAt: r.opts.Now()}
			return m, r.store.InsertGroupMember(ctx, m)
		},
		nil,
	)
	switch {
	case err != nil:
		res.add(Event{Kind: ErrorAddingUserToGroup, Ref: name, Err: err})
		return false
	case created:
		res.add(Event{Kind: AddedUserToGroup, Ref: name})
	default:
		res.add(Event{Kind: UserAlreadyInGroup, Ref: name})
	}
	return true
}

func (r *Reconciler) studentRole(ctx context.Context) (*store.Role, bool, error) {
	return getOrCreate(ctx,
		func(ctx context.Context) (*store.Role, error) {
			return r.store.RoleByShortName(ctx, StudentRole)
		},
		func(ctx context.Context) (*store.Role, error) {
			sortOrder, err := r.store.MaxRoleSortOrder(ctx)
			if err != nil {
				return nil, err
			}
			role := &store.Role{
				ShortName:   StudentRole,
				Name:        StudentRole,
				Description: StudentRole,
				Archetype:   StudentRole,
				SortOrder:   sortOrder + 1,
			}
			return role, r.store.InsertRole(ctx, role)
		},
		nil,
	)
}
