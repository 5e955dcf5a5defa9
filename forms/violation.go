// Package forms implements the notation-form classifier and normalizer:
// recognizing and converting between einsum, reduction, and concrete
// notation, and the zero-propagation rewriter.
package forms

import "fmt"

// Violation is returned by a form predicate that fails: it names the
// form ("einsum", "reduction", "concrete"), the first offending node, and
// a human-readable reason ("every transformation and form
// predicate returns both a flag and a reason").
type Violation struct {
	Form string
	Msg  string
	At   fmt.Stringer
}

func (v *Violation) Error() string {
	if v.At != nil {
		return fmt.Sprintf("%s: %s (at %s)", v.Form, v.Msg, v.At)
	}
	return fmt.Sprintf("%s: %s", v.Form, v.Msg)
}

func violation(form string, at fmt.Stringer, format string, args ...interface{}) *Violation {
	return &Violation{Form: form, Msg: fmt.Sprintf(format, args...), At: at}
}
