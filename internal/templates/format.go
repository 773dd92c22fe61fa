package templates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/strrl/llm-code/internal/chat"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// templateFile is the on-disk shape shared by every format.
type templateFile struct {
	Content *string `json:"content" toml:"content" yaml:"content"`
	Name    string  `json:"name" toml:"name" yaml:"name"`
	Role    string  `json:"role" toml:"role" yaml:"role"`
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/"))) {
	case ".json":
		return FormatJSON, true
	case ".toml":
		return FormatTOML, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// Parse decodes a single template. Unknown fields, unknown roles and a
// missing content field are errors.
func Parse(data []byte, format Format) (*Template, error) {
	var file templateFile

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, &ParseError{Err: err}
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: errors.New("unexpected data after template")}
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, &ParseError{Err: fmt.Errorf("unknown field %q", undecoded[0].String())}
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("empty document")
			}
			return nil, &ParseError{Err: err}
		}
	default:
		return nil, &ParseError{Err: fmt.Errorf("unsupported template format %q", format)}
	}

	if file.Content == nil {
		return nil, &ParseError{Err: errors.New("missing required field \"content\"")}
	}

	role := chat.RoleUser
	if file.Role != "" {
		parsed, err := chat.ParseRole(file.Role)
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		role = parsed
	}

	return New(file.Name, role, *file.Content)
}

// ParseFS reads and decodes the template stored at name inside fsys.
func ParseFS(fsys fs.FS, name string) (*Template, error) {
	format, ok := FormatFromPath(name)
	if !ok {
		return nil, &ParseError{Path: name, Err: fmt.Errorf("unsupported template format %q", path.Ext(name))}
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	return parseWithPath(data, format, name)
}

// ParseFile reads and decodes the template stored at path on disk.
func ParseFile(filename string) (*Template, error) {
	format, ok := FormatFromPath(filename)
	if !ok {
		return nil, &ParseError{Path: filename, Err: fmt.Errorf("unsupported template format %q", path.Ext(filename))}
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", filename, err)
	}

	return parseWithPath(data, format, filename)
}

func parseWithPath(data []byte, format Format, name string) (*Template, error) {
	t, err := Parse(data, format)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = name
			return nil, parseErr
		}
		return nil, &ParseError{Path: name, Err: err}
	}
	return t, nil
}

// Marshal encodes the full template state in the given format.
func (t *Template) Marshal(format Format) ([]byte, error) {
	content := t.content
	file := templateFile{
		Content: &content,
		Name:    t.name,
		Role:    string(t.role),
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode template: %w", err)
		}
		return append(data, '\n'), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(file); err != nil {
			return nil, fmt.Errorf("failed to encode template: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		data, err := yaml.Marshal(file)
		if err != nil {
			return nil, fmt.Errorf("failed to encode template: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported template format %q", format)
	}
}
