package chat

import (
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var ErrInvalidRole = errors.New("invalid role")

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// ParseRole accepts the lowercase role names used on the wire.
func ParseRole(value string) (Role, error) {
	role := Role(strings.TrimSpace(value))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, value)
	}
	return role, nil
}

// Message is a single chat turn sent to or received from the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func NewMessage(role Role, content string) (Message, error) {
	if !role.Valid() {
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return Message{Role: role, Content: content}, nil
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Code returns the trailing fenced code block of the message, if any.
func (m Message) Code() (CodeBlock, bool) {
	return ExtractCode(m.Content)
}
