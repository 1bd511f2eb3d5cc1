package pkgerror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by stores when no dataset has the requested id.
var ErrNotFound = errors.New("dataset not found")

// Type says which side of the service an error belongs to.
type Type int

const (
	TypeServer     Type = iota // Failures of this process: disk writes, encoding, wiring.
	TypeBusiness               // Requests that are well formed but cannot be served, such as an unknown dataset.
	TypeValidation             // Requests or uploads that are malformed.
	TypeUpstream               // Failures of the chat completion API.
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeUpstream:
		return "ERROR_TYPE_UPSTREAM"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is the value written to the "code" field of the error envelope. Each
// code maps to exactly one HTTP status.
type Code int

const (
	CodeInternal      Code = iota // 500
	CodeInvalidFormat             // 400, request body is not what the endpoint reads
	CodeInvalidInput              // 422, uploaded file could not be parsed
	CodeNotFound                  // 404, unknown dataset id
	CodeConflict                  // 409, dataset exists or is still being uploaded
	CodeBadRequest                // 400, required field missing or blank
	CodeUpstream                  // 502, chat completion call failed
	CodeTooLarge                  // 413, upload over upload.max_bytes
)

//nolint:gochecknoglobals // read-only lookup tables
var (
	codeNames = map[Code]string{
		CodeInternal:      "ERROR_CODE_INTERNAL",
		CodeInvalidFormat: "ERROR_CODE_INVALID_FORMAT",
		CodeInvalidInput:  "ERROR_CODE_INVALID_INPUT",
		CodeNotFound:      "ERROR_CODE_NOT_FOUND",
		CodeConflict:      "ERROR_CODE_CONFLICT",
		CodeBadRequest:    "ERROR_CODE_BAD_REQUEST",
		CodeUpstream:      "ERROR_CODE_UPSTREAM",
		CodeTooLarge:      "ERROR_CODE_TOO_LARGE",
	}

	codeStatus = map[Code]int{
		CodeInternal:      http.StatusInternalServerError,
		CodeInvalidFormat: http.StatusBadRequest,
		CodeInvalidInput:  http.StatusUnprocessableEntity,
		CodeNotFound:      http.StatusNotFound,
		CodeConflict:      http.StatusConflict,
		CodeBadRequest:    http.StatusBadRequest,
		CodeUpstream:      http.StatusBadGateway,
		CodeTooLarge:      http.StatusRequestEntityTooLarge,
	}
)

// String returns the envelope name of c. Unknown codes read as internal.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return codeNames[CodeInternal]
}

// Error is what usecases hand back to the router: a message safe to show the
// client, the Type and Code that pick the status, and optionally the cause.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
}

// Error returns the cause's text when there is one, so logs keep the detail
// that Msg hides from clients.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	case TypeServer:
		return "Internal error"
	case TypeUpstream:
		return "Upstream service failure"
	default:
		return "Unknown error"
	}
}

// String is the verbose form used in server-side logs.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.code.String(),
		e.msg,
		e.err,
	)
}

// Msg is the client-facing message.
func (e *Error) Msg() string {
	return e.msg
}

func (e *Error) Type() Type {
	return e.errType
}

func (e *Error) Code() Code {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode is the HTTP status the router answers with.
func (e *Error) StatusCode() int {
	if status, ok := codeStatus[e.code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func new(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer hides err behind a generic 500 message.
func NewServer(err error) error {
	return new(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness reports a request that cannot be served, with the given code.
func NewBusiness(msg string, code Code) error {
	return new(nil, msg, TypeBusiness, code)
}

// NewBadRequest reports a missing or blank required field such as file_id or
// question.
func NewBadRequest(msg string) error {
	return new(nil, msg, TypeValidation, CodeBadRequest)
}

// NewUpstream wraps a failed chat completion call.
func NewUpstream(err error, msg string) error {
	return new(err, msg, TypeUpstream, CodeUpstream)
}

// NewInvalidInputMsg reports an upload that could not be read or parsed.
func NewInvalidInputMsg(err error, msg string) error {
	return new(err, msg, TypeValidation, CodeInvalidInput)
}

// NewInvalidFormat reports a request body the endpoint cannot read, such as a
// multipart form without a file part.
func NewInvalidFormat() error {
	return new(nil, "invalid request body", TypeValidation, CodeInvalidFormat)
}
