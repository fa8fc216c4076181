package http1

import "github.com/indigo-web/webserv/http/status"

// Outcome tells the caller what to do after feeding the parser.
type Outcome uint8

const (
	// Pending means more bytes are required to complete the message.
	Pending Outcome = iota
	// Done means the message is complete, including its body.
	Done
	// NoBody means the message is complete, however its method requires a body
	// and none was declared.
	NoBody
	// Error means the message is malformed. The error is terminal for the message.
	Error
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Done:
		return "done"
	case NoBody:
		return "no body"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Result is a single parse step outcome. Err is set only for the Error outcome and is
// always a status.HTTPError.
type Result struct {
	Outcome Outcome
	Err     error
}

// Complete reports whether the request is ready to be dispatched.
func (r Result) Complete() bool {
	return r.Outcome == Done || r.Outcome == NoBody
}

// Code returns the status code to respond with for the Error outcome.
func (r Result) Code() status.Code {
	return status.CodeOf(r.Err)
}

func pending() Result {
	return Result{Outcome: Pending}
}

func fail(err error) Result {
	return Result{Outcome: Error, Err: err}
}
