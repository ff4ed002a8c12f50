package xcodebuild

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Token is a single element of the generated command: either a shell fragment or an xcodebuild action.
type Token struct {
	Value  string
	Action bool
}

// Arg ...
func Arg(value string) Token {
	return Token{Value: value}
}

// Action ...
func Action(name string) Token {
	return Token{Value: name, Action: true}
}

// String ...
func (t Token) String() string {
	return t.Value
}

// Command is the ordered token sequence of a shell pipeline.
type Command []Token

// String joins the tokens into a single shell line.
func (c Command) String() string {
	parts := make([]string, 0, len(c))
	for _, token := range c {
		parts = append(parts, token.Value)
	}
	return strings.Join(parts, " ")
}

// Actions lists the xcodebuild actions in order.
func (c Command) Actions() []string {
	var actions []string
	for _, token := range c {
		if token.Action {
			actions = append(actions, token.Value)
		}
	}
	return actions
}

// Validate checks that the joined command parses as a bash pipeline.
func (c Command) Validate() error {
	if _, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(c.String()), ""); err != nil {
		return fmt.Errorf("generated command is not a valid shell pipeline: %w", err)
	}
	return nil
}
