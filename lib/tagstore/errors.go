package tagstore

import "fmt"

// ValueMismatchError is returned by [Store.Tag] when a tag's
// value-taking requirement conflicts with the call: a value was
// given for a tag already known to be bare, or omitted for a tag
// already known to take one.
type ValueMismatchError struct {
	Tag        string
	TakesValue bool
}

func (e *ValueMismatchError) Error() string {
	if e.TakesValue {
		return fmt.Sprintf("tag %q takes a value but none was given", e.Tag)
	}
	return fmt.Sprintf("tag %q does not take a value but one was given", e.Tag)
}
