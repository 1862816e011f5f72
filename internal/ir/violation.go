package ir

import (
	"fmt"

	language "github.com/hanpama/fedgraph/internal/language"
)

type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.File != "" {
			line += fmt.Sprintf(" %s:%d:%d", v.File, v.Line, v.Column)
		}
		msg += line + "\n"
	}
	return msg
}

// Core primitive used by all template helpers.
func violationWithPosition(message string, pos *language.Position) *Violation {
	v := &Violation{Message: message}
	if pos == nil {
		return v
	}
	if pos.Src != nil {
		v.File = pos.Src.Name
	}
	v.Line = pos.Line
	v.Column = pos.Column
	return v
}
