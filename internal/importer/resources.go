package importer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/importusers/import-service/internal/reconcile"
	"github.com/importusers/import-service/internal/store"
)

// LoginResourceName is the title of the per-course login details resource
const LoginResourceName = "User login details"

// loginEntry is one user line of a login details table
type loginEntry struct {
	username  string
	password  string
	firstname string
	lastname  string
	groups    []string
}

// loginCourse collects the users enrolled in one course during a run
type loginCourse struct {
	id        string
	shortname string
	entries   []loginEntry
	groups    []string
}

// loginTables accumulates login details per course in first-seen order
type loginTables struct {
	courses []*loginCourse
	byID    map[string]*loginCourse
}

func newLoginTables() *loginTables {
	return &loginTables{byID: make(map[string]*loginCourse)}
}

func (t *loginTables) add(res *reconcile.Result, rawPassword string) {
	if res.User == nil {
		return
	}
	for _, ref := range res.Courses {
		c, ok := t.byID[ref.ID]
		if !ok {
			c = &loginCourse{id: ref.ID, shortname: ref.ShortName}
			t.byID[ref.ID] = c
			t.courses = append(t.courses, c)
		}
		for _, g := range ref.Groups {
			if !slices.Contains(c.groups, g) {
				c.groups = append(c.groups, g)
			}
		}
		c.entries = append(c.entries, loginEntry{
			username:  res.User.Username,
			password:  rawPassword,
			firstname: res.User.FirstName,
			lastname:  res.User.LastName,
			groups:    ref.Groups,
		})
	}
}

// renderLogins writes entries as a plain-text table, keeping only members of
// group when group is not empty.
func renderLogins(entries []loginEntry, group string) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "username\tpassword\tfirstname\tlastname")
	for _, e := range entries {
		if group != "" && !slices.Contains(e.groups, group) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.username, e.password, e.firstname, e.lastname)
	}
	tw.Flush()
	return b.String()
}

// writeLoginResources upserts one resource per course and one per group
func (r *run) writeLoginResources(ctx context.Context, tables *loginTables) error {
	for _, c := range tables.courses {
		names := []string{""}
		names = append(names, c.groups...)
		for _, group := range names {
			name := LoginResourceName
			if group != "" {
				name = fmt.Sprintf("%s: %s", LoginResourceName, group)
			}
			created, err := r.upsertResource(ctx, c.id, name, renderLogins(c.entries, group))
			if err != nil {
				return fmt.Errorf("failed to write %q for course %s: %w", name, c.shortname, err)
			}
			r.report.Resources = append(r.report.Resources, ResourceRef{
				Course:  c.shortname,
				Name:    name,
				Kind:    string(r.opts.ResourceType),
				Created: created,
			})
			r.logger.Info().
				Str("course", c.shortname).
				Str("resource", name).
				Bool("created", created).
				Msg("Login details resource written")
		}
	}
	return nil
}

func (r *run) upsertResource(ctx context.Context, courseID, name, content string) (bool, error) {
	existing, err := r.store.Resource(ctx, courseID, name)
	switch {
	case err == nil:
		existing.Content = content
		existing.Kind = string(r.opts.ResourceType)
		return false, r.store.UpdateResource(ctx, existing)
	case errors.Is(err, store.ErrNotFound):
		return true, r.store.InsertResource(ctx, &store.Resource{
			CourseID: courseID,
			Name:     name,
			Kind:     string(r.opts.ResourceType),
			Content:  content,
		})
	default:
		return false, err
	}
}
