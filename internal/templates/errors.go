package templates

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNameRequired      = errors.New("name must be provided to save the template")
	ErrUnnamedTemplate   = errors.New("template must have a name")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrPathNotFound      = errors.New("path does not exist")
	ErrDuplicateTemplate = errors.New("duplicate template name")
	ErrMissingSlot       = errors.New("missing slot value")
)

// MissingSlotError lists the slots referenced by a template that had no
// value at render time.
type MissingSlotError struct {
	Template string
	Slots    []string
}

func (e *MissingSlotError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("missing value for slot(s): %s", strings.Join(e.Slots, ", "))
	}
	return fmt.Sprintf("template %q: missing value for slot(s): %s", e.Template, strings.Join(e.Slots, ", "))
}

func (e *MissingSlotError) Is(target error) bool {
	return target == ErrMissingSlot
}

type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to parse template: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse template %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
