package board

import (
	"fmt"
	"strings"
)

// Kind categorizes engine failures.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	// KindConsistency means the board exists but an element the caller
	// addressed inside it could not be located, which points at a broken
	// document rather than a normal absence.
	KindConsistency     Kind = "CONSISTENCY_FAULT"
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
)

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrConsistency      = &Error{Kind: KindConsistency}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
)

// Error is the single typed failure returned by Service operations.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	BoardID string
	GroupID string
	TaskID  string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	var ids []string
	if e.BoardID != "" {
		ids = append(ids, "board="+e.BoardID)
	}
	if e.GroupID != "" {
		ids = append(ids, "group="+e.GroupID)
	}
	if e.TaskID != "" {
		ids = append(ids, "task="+e.TaskID)
	}
	if len(ids) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ids, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind, so errors.Is(err, ErrNotFound) holds for any not-found
// failure. A consistency fault also counts as not found.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return e.Kind == KindConsistency && t.Kind == KindNotFound
}

func notFound(op, boardID, groupID, taskID, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg, BoardID: boardID, GroupID: groupID, TaskID: taskID}
}

func consistencyFault(op, boardID, groupID, taskID, msg string) *Error {
	return &Error{Kind: KindConsistency, Op: op, Message: msg, BoardID: boardID, GroupID: groupID, TaskID: taskID}
}

func invalidArgument(op, msg string, err error) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Message: msg, Err: err}
}
