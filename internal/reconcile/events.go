package reconcile

import (
	"fmt"
	"strings"
)

// EventKind tags one reconciliation outcome
type EventKind string

const (
	NoUsername      EventKind = "nousername"
	MissingUsername EventKind = "missingusername"
	UserSkipped     EventKind = "userskipped"
	AddedUser       EventKind = "addedusertosite"
	UserUpdated     EventKind = "userupdated"
	ErrorAddingUser EventKind = "erroraddinguser"

	MissingCourse        EventKind = "missingcourse"
	MissingCourseContext EventKind = "missingcoursecontext"

	AddedStudentRole          EventKind = "addedstudentrole"
	ErrorAddingStudentRole    EventKind = "erroraddingstudentrole"
	AssignedStudentRole       EventKind = "assignedstudentrole"
	ErrorAssigningStudentRole EventKind = "errorassigningstudentrole"

	AddedGroup             EventKind = "addedgroup"
	ErrorAddingGroup       EventKind = "erroraddinggroup"
	AddedUserToGroup       EventKind = "addedusertogroup"
	UserAlreadyInGroup     EventKind = "useralreadyingroup"
	ErrorAddingUserToGroup EventKind = "erroraddingusertogroup"

	AddedEnrolMethod       EventKind = "addedenrolmethod"
	ErrorAddingEnrolMethod EventKind = "erroraddingenrolmethod"
	UserEnrolled           EventKind = "userenrolled"
	UserAlreadyEnrolled    EventKind = "useralreadyenrolled"
	ErrorEnrollingUser     EventKind = "errorenrollinguser"
)

var eventTexts = map[EventKind]string{
	UserSkipped:     "User skipped",
	AddedUser:       "User added to site",
	UserUpdated:     "User updated",
	ErrorAddingUser: "Oops - user could not be added to site.",

	MissingCourse:        "Course not found",
	MissingCourseContext: "Course context not found",

	AddedStudentRole:          "Student role added to site",
	ErrorAddingStudentRole:    "Oops - Student role could not be created.",
	AssignedStudentRole:       "Student role assigned",
	ErrorAssigningStudentRole: "Oops - student role could not be assigned.",

	AddedGroup:             "Group added to course",
	ErrorAddingGroup:       "Oops - group could not be added.",
	AddedUserToGroup:       "User added to group",
	UserAlreadyInGroup:     "User already in group",
	ErrorAddingUserToGroup: "Oops - user could not be added to group.",

	AddedEnrolMethod:       "Manual enrol method added to course",
	ErrorAddingEnrolMethod: "Oops - could not add manual enrol method.",
	UserEnrolled:           "User enrolled in course",
	UserAlreadyEnrolled:    "User already enrolled in course",
	ErrorEnrollingUser:     "Oops - user could not be enrolled in course.",
}

// IsError reports whether the event records a failure
func (k EventKind) IsError() bool {
	switch k {
	case NoUsername, MissingUsername, ErrorAddingUser, MissingCourse, MissingCourseContext,
		ErrorAddingStudentRole, ErrorAssigningStudentRole, ErrorAddingGroup,
		ErrorAddingUserToGroup, ErrorAddingEnrolMethod, ErrorEnrollingUser:
		return true
	}
	return false
}

// Event is one side effect or failure of reconciling a row
type Event struct {
	Kind EventKind `json:"kind"`
	// Ref names the course or group the event concerns
	Ref      string `json:"ref,omitempty"`
	Username string `json:"-"`
	Sheet    string `json:"-"`
	Row      int    `json:"-"`
	Err      error  `json:"-"`
}

// Text renders the event for the status column
func (e Event) Text() string {
	var text string
	switch e.Kind {
	case NoUsername:
		text = fmt.Sprintf("Username could not be determined on sheet %q (row %d)", e.Sheet, e.Row)
	case MissingUsername:
		text = fmt.Sprintf("Username not found: %q on sheet %q (row %d)", e.Username, e.Sheet, e.Row)
	default:
		text = eventTexts[e.Kind]
		if text == "" {
			text = string(e.Kind)
		}
	}
	if e.Ref != "" {
		text = fmt.Sprintf("%s (%s)", text, e.Ref)
	}
	return text
}

// Status joins the texts of events into one status cell
func Status(events []Event) string {
	texts := make([]string, len(events))
	for i, e := range events {
		texts[i] = e.Text()
	}
	return strings.Join(texts, "\n")
}
