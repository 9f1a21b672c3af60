package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// UploadAction decides whether rows may create users, update them, or both
type UploadAction string

const (
	AddNewOnly     UploadAction = "addnew"
	AddAndUpdate   UploadAction = "addupdate"
	UpdateExisting UploadAction = "update"
)

// ParseUploadAction accepts the option values used in config files and forms
func ParseUploadAction(s string) (UploadAction, error) {
	switch a := UploadAction(strings.ToLower(strings.TrimSpace(s))); a {
	case AddNewOnly, AddAndUpdate, UpdateExisting:
		return a, nil
	case "":
		return AddNewOnly, nil
	default:
		return "", fmt.Errorf("invalid upload action %q", s)
	}
}

// Choice is a three-way switch that can be limited to new users
type Choice string

const (
	No           Choice = "no"
	Yes          Choice = "yes"
	NewUsersOnly Choice = "newusers"
)

// ParseChoice accepts no/yes/newusers, none/all and 0/1/2
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no", "none", "0", "false":
		return No, nil
	case "yes", "all", "1", "true":
		return Yes, nil
	case "newusers", "2":
		return NewUsersOnly, nil
	default:
		return "", fmt.Errorf("invalid choice %q", s)
	}
}

// Applies reports whether the choice covers a user that is new or existing
func (c Choice) Applies(isNew bool) bool {
	switch c {
	case Yes:
		return true
	case NewUsersOnly:
		return isNew
	default:
		return false
	}
}

// Options is the fixed set of caller choices for one import run
type Options struct {
	UploadAction UploadAction
	// UniqueEmail matches existing accounts by email. Yes gives an email match
	// priority over a username match; NewUsersOnly consults email only when
	// no account has the username.
	UniqueEmail  Choice
	FixUsernames Choice
	// ChangePassword forces affected users to change password at next login
	ChangePassword Choice

	// Defaults for user fields the record leaves empty
	AuthMethod        string
	Timezone          string
	Language          string
	CalendarType      string
	DescriptionText   string
	DescriptionFormat string

	// Now returns the enrolment start time; defaults to time.Now
	Now func() time.Time
}

// DefaultOptions mirror the defaults of a fresh install
func DefaultOptions() Options {
	return Options{
		UploadAction:      AddNewOnly,
		UniqueEmail:       No,
		FixUsernames:      No,
		ChangePassword:    No,
		AuthMethod:        "manual",
		Timezone:          "99",
		Language:          "en",
		CalendarType:      "gregorian",
		DescriptionFormat: "html",
	}
}
