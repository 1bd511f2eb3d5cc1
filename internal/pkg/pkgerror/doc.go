// Package pkgerror holds the error vocabulary shared by every layer.
//
// Stores return sentinel errors such as ErrNotFound and usecases translate
// them into *Error values. An *Error carries a client-facing message, a Type
// and a Code; the router maps the Code to an HTTP status and writes it into
// the error envelope.
//
// NewUpstream marks a failed call to a remote dependency such as the chat
// completion API (502). CodeTooLarge marks an upload over the size limit (413).
package pkgerror
