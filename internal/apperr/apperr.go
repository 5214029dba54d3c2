package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a domain failure. Storage errors are mapped into one of
// these kinds exactly once, at the repository boundary; handlers translate
// kinds to HTTP status codes and never inspect error strings.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindPermissionDenied
	KindConflict
	KindDependency
	KindInfrastructure
	KindInternal
)

// Stable error codes surfaced to API clients.
const (
	CodeAssignmentNotFound      = "ASSIGNMENT_NOT_FOUND"
	CodeSupervisorNotFound      = "SUPERVISOR_NOT_FOUND"
	CodeSubmissionNotFound      = "SUBMISSION_NOT_FOUND"
	CodeGroupNotFound           = "GROUP_NOT_FOUND"
	CodeAccessDenied            = "ACCESS_DENIED"
	CodeAssignmentInactive      = "ASSIGNMENT_INACTIVE"
	CodeInvalidStudents         = "INVALID_STUDENTS"
	CodeAlreadyInvited          = "ALREADY_INVITED"
	CodeNoInvitationsFound      = "NO_INVITATIONS_FOUND"
	CodeStudentsHaveSubmissions = "STUDENTS_HAVE_SUBMISSIONS"
	CodeInvalidScore            = "INVALID_SCORE"
	CodeConflict                = "CONFLICT"
	CodeStatusUnchanged         = "STATUS_UNCHANGED"
	CodeGroupSizeExceeded       = "GROUP_SIZE_EXCEEDED"
	CodeStudentsNotFound        = "STUDENTS_NOT_FOUND"
	CodeStudentAlreadyInGroup   = "STUDENT_ALREADY_IN_GROUP"
	CodeDuplicateGroupName      = "DUPLICATE_GROUP_NAME"
	CodeGroupHasSubmissions     = "GROUP_HAS_SUBMISSIONS"
	CodeAssignmentHasSubs       = "ASSIGNMENT_HAS_SUBMISSIONS"
	CodeNotGroupAssignment      = "NOT_GROUP_ASSIGNMENT"
	CodeValidationError         = "VALIDATION_ERROR"
	CodeInternalError           = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(err error, kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// WithFields attaches per-field details, e.g. the list of rejected student ids.
func (e *Error) WithFields(fields map[string]string) *Error {
	e.Fields = fields
	return e
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidationError, Message: message, Fields: fields}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternalError, Message: "internal server error", Err: err}
}

// From extracts an *Error from any error in the chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindConflict, KindDependency:
		return http.StatusConflict
	case KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
