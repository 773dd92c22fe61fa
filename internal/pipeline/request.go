package pipeline

import (
	"fmt"
	"strings"

	"github.com/strrl/llm-code/internal/chat"
	"github.com/strrl/llm-code/internal/templates"
)

const (
	TemplateSystem = "coding/system"
	TemplateSimple = "coding/simple"
	TemplateInput  = "coding/input"
)

const fileSeparator = "\n---\n"

type FileInput struct {
	Name    string
	Content string
}

// TemplatesMissingError names the templates a request needed but the
// library did not have.
type TemplatesMissingError struct {
	Names []string
}

func (e *TemplatesMissingError) Error() string {
	return fmt.Sprintf("required templates not found: %s", strings.Join(e.Names, ", "))
}

// BuildRequest renders the system template followed by either the input
// template (when files are given) or the simple one.
func BuildRequest(files []FileInput, instructions string, library *templates.Library) ([]chat.Message, error) {
	userTemplate := TemplateSimple
	values := map[string]string{"instructions": instructions}
	if len(files) > 0 {
		userTemplate = TemplateInput
		values["code"] = ComposeFiles(files)
	}

	var missing []string
	for _, name := range []string{TemplateSystem, userTemplate} {
		if library == nil || !library.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &TemplatesMissingError{Names: missing}
	}

	system, err := library.Get(TemplateSystem)
	if err != nil {
		return nil, err
	}
	systemMsg, err := system.Render(nil)
	if err != nil {
		return nil, err
	}

	user, err := library.Get(userTemplate)
	if err != nil {
		return nil, err
	}
	userMsg, err := user.Render(values)
	if err != nil {
		return nil, err
	}

	return []chat.Message{systemMsg, userMsg}, nil
}

// ComposeFiles formats each file as a FILENAME header plus a fenced body,
// in input order.
func ComposeFiles(files []FileInput) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		var sb strings.Builder
		sb.WriteString("FILENAME: ")
		sb.WriteString(f.Name)
		sb.WriteString("\n```\n")
		sb.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("```")
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, fileSeparator)
}
