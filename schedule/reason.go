package schedule

import "fmt"

// Reason is returned alongside a failed transformation (user
// errors surface as a reason string identifying the first violating
// site). It implements error so callers that just want to know whether a
// transformation failed can treat it as one, while callers that want the
// offending statement can type-assert to *Reason.
type Reason struct {
	Op  string // the transformation that failed, e.g. "split"
	Msg string
	At  fmt.Stringer // the statement or sub-tree at fault, if any
}

func (r *Reason) Error() string {
	if r.At != nil {
		return fmt.Sprintf("%s: %s (at %s)", r.Op, r.Msg, r.At)
	}
	return fmt.Sprintf("%s: %s", r.Op, r.Msg)
}

func reasonf(op string, at fmt.Stringer, format string, args ...interface{}) *Reason {
	return &Reason{Op: op, Msg: fmt.Sprintf(format, args...), At: at}
}
