package chat

import "strings"

const fence = "```"

type CodeBlock struct {
	Language string
	Code     string
}

// openingFence returns the index of the last fence in s that starts a line,
// or -1. Fences inside a line belong to the block body or to prose.
func openingFence(s string) int {
	for end := len(s); end > 0; {
		i := strings.LastIndex(s[:end], fence)
		if i == -1 {
			return -1
		}
		if i == 0 || s[i-1] == '\n' {
			return i
		}
		end = i
	}
	return -1
}

// ExtractCode finds the fenced block that terminates content. Trailing
// whitespace after the closing fence is ignored; anything else after it
// means there is no block. The opening fence is the last one
// that starts a line.
func ExtractCode(content string) (CodeBlock, bool) {
	trimmed := strings.TrimRight(content, " \t\r\n")
	if !strings.HasSuffix(trimmed, fence) {
		return CodeBlock{}, false
	}

	closing := len(trimmed) - len(fence)
	opening := openingFence(trimmed[:closing])
	if opening == -1 {
		return CodeBlock{}, false
	}

	rest := trimmed[opening+len(fence) : closing]
	newline := strings.IndexByte(rest, '\n')
	if newline == -1 {
		return CodeBlock{}, false
	}

	return CodeBlock{
		Language: strings.TrimSpace(rest[:newline]),
		Code:     strings.TrimSpace(rest[newline+1:]),
	}, true
}
