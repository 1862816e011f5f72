package ir

import (
	"strconv"

	language "github.com/hanpama/fedgraph/internal/language"
)

func (b *builder) getStringValue(node *language.Value) string {
	if node.Kind != language.StringValue && node.Kind != language.BlockValue {
		b.addViolation(violationExpectedString(node.Position))
		return ""
	}
	return node.Raw
}

func (b *builder) getBoolValue(node *language.Value) bool {
	if node.Kind != language.BooleanValue {
		b.addViolation(violationExpectedBoolean(node.Position))
		return false
	}
	return node.Raw == "true"
}

func (b *builder) getIntValue(node *language.Value) int {
	if node.Kind != language.IntValue {
		b.addViolation(violationExpectedInt(node.Position))
		return 0
	}
	v, err := strconv.Atoi(node.Raw)
	if err != nil {
		b.addViolation(violationExpectedInt(node.Position))
		return 0
	}
	return v
}
