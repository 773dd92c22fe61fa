package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"

	"github.com/strrl/llm-code/internal/chat"
)

const defaultStyle = "monokai"

// clipboardWriteAll is swapped out in tests.
var clipboardWriteAll = clipboard.WriteAll

type Printer struct {
	w           io.Writer
	lineNumbers bool
	color       bool
	style       string
}

// NewPrinter highlights only when w is a terminal.
func NewPrinter(w io.Writer, lineNumbers bool) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{
		w:           w,
		lineNumbers: lineNumbers,
		color:       color,
		style:       defaultStyle,
	}
}

func (p *Printer) PrintCode(block chat.CodeBlock) error {
	text := block.Code
	if p.color {
		highlighted, err := highlight(block.Code, block.Language, p.style)
		if err != nil {
			return err
		}
		text = highlighted
	}

	if p.lineNumbers {
		text = numberLines(text)
	}

	_, err := fmt.Fprintln(p.w, strings.TrimRight(text, "\n"))
	return err
}

func (p *Printer) PrintNoCode(msg chat.Message) error {
	_, err := fmt.Fprintf(p.w, "No code found in message: \n\n%s\n", msg.Content)
	return err
}

// Copy puts text on the system clipboard.
func Copy(text string) error {
	if err := clipboardWriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

func highlight(code, language, styleName string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("failed to tokenise code: %w", err)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", fmt.Errorf("failed to format code: %w", err)
	}
	return buf.String(), nil
}

func numberLines(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	width := len(fmt.Sprint(len(lines)))

	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb, "%*d  %s\n", width, i+1, line)
	}
	return sb.String()
}
