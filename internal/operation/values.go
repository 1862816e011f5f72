package operation

import (
	"fmt"
	"math"
	"strconv"

	language "github.com/hanpama/fedgraph/internal/language"
	schema "github.com/hanpama/fedgraph/internal/schema"
)

// CoerceVariables coerces the provided variable values according to the
// operation's variable definitions. Missing nullable variables without a
// default are left out of the result.
func CoerceVariables(s *schema.Schema, def *language.OperationDefinition, values map[string]any) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, varDef := range def.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		if !s.IsInputType(t.Name()) {
			return nil, language.ErrorPosf(varDef.Position, "Variable \"$%s\" cannot be non-input type \"%s\".", name, t.String())
		}
		val, ok := values[name]
		if !ok {
			if varDef.DefaultValue != nil {
				val = literalValue(varDef.DefaultValue, nil)
			} else if t.NonNull {
				return nil, language.ErrorPosf(varDef.Position, "variable $%s of required type %s was not provided", name, t.String())
			} else {
				continue
			}
		}
		cv, err := coerceValue(s, val, typeRefFromAST(t))
		if err != nil {
			return nil, language.ErrorPosf(varDef.Position, "variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// literalValue converts an AST value to a runtime value, substituting
// variables from vars.
func literalValue(value *language.Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.Variable:
		return vars[value.Raw]
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = literalValue(c.Value, vars)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = literalValue(f.Value, vars)
		}
		return m
	default:
		return nil
	}
}

func coerceValue(s *schema.Schema, value any, t *schema.TypeRef) (any, error) {
	if t.IsNonNull() {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", t.String())
		}
		return coerceValue(s, value, t.OfType)
	}
	if value == nil {
		return nil, nil
	}
	if t.Kind == schema.TypeRefKindList {
		// A single value stands for a list of one
		items, ok := value.([]any)
		if !ok {
			items = []any{value}
		}
		out := make([]any, len(items))
		for i, item := range items {
			cv, err := coerceValue(s, item, t.OfType)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	}

	named := s.Types[t.Named]
	if named == nil {
		return nil, fmt.Errorf("unknown type %s", t.Named)
	}
	switch named.Kind {
	case schema.TypeKindInputObject:
		return coerceInputObject(s, value, named)
	case schema.TypeKindEnum:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("cannot coerce %v (%T) to enum %s", value, value, named.Name)
		}
		for _, ev := range named.EnumValues {
			if ev.Name == str {
				return str, nil
			}
		}
		return nil, fmt.Errorf("value %q does not exist in enum %s", str, named.Name)
	case schema.TypeKindScalar:
		switch named.Name {
		case "Int":
			return coerceToInt(value)
		case "Float":
			return coerceToFloat(value)
		case "String":
			return coerceToString(value)
		case "Boolean":
			return coerceToBoolean(value)
		case "ID":
			return coerceToID(value)
		default:
			// Custom scalars pass through
			return value, nil
		}
	}
	return nil, fmt.Errorf("type %s is not an input type", named.Name)
}

func coerceInputObject(s *schema.Schema, value any, t *schema.Type) (any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to input object %s", value, value, t.Name)
	}
	known := make(map[string]bool, len(t.InputFields))
	out := make(map[string]any, len(obj))
	for _, f := range t.InputFields {
		known[f.Name] = true
		v, present := obj[f.Name]
		if !present {
			if f.DefaultValue != "" {
				out[f.Name] = defaultValue(f.DefaultValue)
				continue
			}
			if f.Type.IsNonNull() {
				return nil, fmt.Errorf("required field '%s' of %s was not provided", f.Name, t.Name)
			}
			continue
		}
		cv, err := coerceValue(s, v, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s' of %s: %w", f.Name, t.Name, err)
		}
		out[f.Name] = cv
	}
	for name := range obj {
		if !known[name] {
			return nil, fmt.Errorf("field '%s' is not defined by %s", name, t.Name)
		}
	}
	return out, nil
}

// defaultValue parses a default value literal as stored in the schema.
func defaultValue(literal string) any {
	doc, err := language.ParseQuery("{f(v: " + literal + ")}")
	if err != nil || len(doc.Operations) != 1 {
		return nil
	}
	f, ok := doc.Operations[0].SelectionSet[0].(*language.Field)
	if !ok || len(f.Arguments) != 1 {
		return nil
	}
	return literalValue(f.Arguments[0].Value, nil)
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to string", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}
