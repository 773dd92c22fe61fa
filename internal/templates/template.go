package templates

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/strrl/llm-code/internal/chat"
)

// Template is a named, role-tagged piece of text with {slot} placeholders.
// It is read-only after construction.
type Template struct {
	name     string
	role     chat.Role
	content  string
	segments []segment
}

// New builds a template. An empty role defaults to user.
func New(name string, role chat.Role, content string) (*Template, error) {
	if role == "" {
		role = chat.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("template %q: %w: %q", name, chat.ErrInvalidRole, role)
	}

	return &Template{
		name:     name,
		role:     role,
		content:  content,
		segments: scan(content),
	}, nil
}

func (t *Template) Name() string { return t.name }

func (t *Template) Role() chat.Role { return t.role }

func (t *Template) Content() string { return t.content }

// RequiredSlots returns the sorted, de-duplicated slot names used in the content.
func (t *Template) RequiredSlots() []string {
	return slotNames(t.segments)
}

// Render substitutes every slot. Extra values are ignored; a referenced slot
// without a value fails with a *MissingSlotError.
func (t *Template) Render(values map[string]string) (chat.Message, error) {
	content, missing := substitute(t.segments, values)
	if len(missing) > 0 {
		return chat.Message{}, &MissingSlotError{Template: t.name, Slots: missing}
	}
	return chat.NewMessage(t.role, content)
}

// Save writes the template to path, choosing the format from its extension.
// With an empty path the template is written to "<name>.json".
func (t *Template) Save(path string) error {
	if path == "" {
		if t.name == "" {
			return ErrNameRequired
		}
		path = t.name + ".json"
	}

	format, ok := FormatFromPath(path)
	if !ok {
		return fmt.Errorf("unsupported template format: %s", filepath.Ext(path))
	}

	data, err := t.Marshal(format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create template directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}

	return nil
}
