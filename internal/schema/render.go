package schema

import (
	"sort"
	"strconv"
	"strings"
)

// Render produces supergraph SDL from the Schema. Subgraph ownership is
// rendered with @join__type and @join__field annotations.
// Deterministic ordering: type/directive names sorted lexicographically.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	renderSchemaDefinition(&b, s)
	if len(s.Subgraphs) > 0 {
		renderJoinDefinitions(&b, s)
	}

	// Collect and sort type names, excluding built-in scalars and meta types
	typeNames := make([]string, 0, len(s.Types))

	for name, typ := range s.Types {
		switch typ {
		case stringType, intType, floatType, booleanType, idType:
			continue
		default:
			if strings.HasPrefix(name, "__") {
				continue
			}
			typeNames = append(typeNames, name)
		}
	}
	sort.Strings(typeNames)

	for _, name := range typeNames {
		typ := s.Types[name]
		switch typ.Kind {
		case TypeKindScalar:
			renderScalar(&b, typ)
		case TypeKindEnum:
			renderEnum(&b, typ)
		case TypeKindInputObject:
			renderInputObject(&b, typ)
		case TypeKindObject:
			renderObject(&b, s, typ)
		case TypeKindInterface:
			renderInterface(&b, s, typ)
		case TypeKindUnion:
			renderUnion(&b, typ)
		}
	}

	// Render directives
	directiveNames := make([]string, 0, len(s.Directives))
	for name, directive := range s.Directives {
		switch directive {
		case includeDirective, skipDirective:
			continue
		default:
			directiveNames = append(directiveNames, name)
		}
	}
	sort.Strings(directiveNames)
	for _, name := range directiveNames {
		renderDirective(&b, s.Directives[name])
	}

	out := strings.TrimRight(b.String(), "\n") + "\n"
	return out
}

func renderSchemaDefinition(b *strings.Builder, s *Schema) {
	if s.QueryType == "Query" &&
		(s.MutationType == "" || s.MutationType == "Mutation") &&
		(s.SubscriptionType == "" || s.SubscriptionType == "Subscription") {
		return
	}
	b.WriteString("schema {\n")
	b.WriteString("  query: " + s.QueryType + "\n")
	if s.MutationType != "" {
		b.WriteString("  mutation: " + s.MutationType + "\n")
	}
	if s.SubscriptionType != "" {
		b.WriteString("  subscription: " + s.SubscriptionType + "\n")
	}
	b.WriteString("}\n\n")
}

func renderJoinDefinitions(b *strings.Builder, s *Schema) {
	b.WriteString("directive @join__graph(name: String!, url: String!) on ENUM_VALUE\n\n")
	b.WriteString("directive @join__type(graph: join__Graph!, key: String, resolvable: Boolean = true) repeatable on OBJECT | INTERFACE | UNION | ENUM | INPUT_OBJECT | SCALAR\n\n")
	b.WriteString("directive @join__field(graph: join__Graph!, requires: String, cost: Int, extension: String) repeatable on FIELD_DEFINITION\n\n")
	b.WriteString("enum join__Graph {\n")
	for _, sg := range s.Subgraphs {
		b.WriteString("  ")
		b.WriteString(GraphEnumValue(sg.Name))
		b.WriteString(" @join__graph(name: ")
		b.WriteString(strconv.Quote(sg.Name))
		b.WriteString(", url: ")
		b.WriteString(strconv.Quote(sg.URL))
		b.WriteString(")\n")
	}
	b.WriteString("}\n\n")
}

// GraphEnumValue returns the join__Graph enum value for a subgraph name.
func GraphEnumValue(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func renderJoinTypes(b *strings.Builder, s *Schema, typ *Type) {
	for _, k := range typ.Keys {
		b.WriteString(" @join__type(graph: ")
		b.WriteString(GraphEnumValue(s.Subgraphs[k.Subgraph].Name))
		b.WriteString(", key: ")
		b.WriteString(strconv.Quote(k.Fields.String()))
		if !k.Resolvable {
			b.WriteString(", resolvable: false")
		}
		b.WriteString(")")
	}
	if typ.Inaccessible {
		b.WriteString(" @inaccessible")
	}
}

// ----- render helpers -----

func renderDescription(b *strings.Builder, desc string) {
	if desc == "" {
		return
	}
	b.WriteString("\"\"\"\n")
	// Escape quotes in description
	escaped := strings.ReplaceAll(desc, "\"", "\\\"")
	b.WriteString(escaped)
	b.WriteString("\n\"\"\"\n")
}

func renderScalar(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("scalar ")
	b.WriteString(typ.Name)
	if typ.SpecifiedByURL != nil {
		b.WriteString(" @specifiedBy(url: \"")
		b.WriteString(*typ.SpecifiedByURL)
		b.WriteString("\")")
	}
	b.WriteString("\n\n")
}

func renderEnum(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("enum ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, val := range typ.EnumValues {
		renderDescription(b, val.Description)
		b.WriteString("  ")
		b.WriteString(val.Name)
		if val.IsDeprecated {
			b.WriteString(" @deprecated")
			if val.DeprecationReason != "" {
				b.WriteString("(reason: \"")
				b.WriteString(val.DeprecationReason)
				b.WriteString("\")")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderInputObject(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("input ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, field := range typ.InputFields {
		renderDescription(b, field.Description)
		b.WriteString("  ")
		b.WriteString(field.Name)
		b.WriteString(": ")
		b.WriteString(renderTypeRef(field.Type))
		if field.DefaultValue != "" {
			b.WriteString(" = ")
			b.WriteString(field.DefaultValue)
		}
		if field.IsDeprecated {
			b.WriteString(" @deprecated")
			if field.DeprecationReason != "" {
				b.WriteString("(reason: \"")
				b.WriteString(field.DeprecationReason)
				b.WriteString("\")")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderObject(b *strings.Builder, s *Schema, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("type ")
	b.WriteString(typ.Name)
	if len(typ.Interfaces) > 0 {
		b.WriteString(" implements ")
		for i, iface := range typ.Interfaces {
			if i > 0 {
				b.WriteString(" & ")
			}
			b.WriteString(iface)
		}
	}
	renderJoinTypes(b, s, typ)
	b.WriteString(" {\n")
	for _, field := range typ.Fields {
		if field.Meta {
			continue
		}
		renderField(b, s, field)
	}
	b.WriteString("}\n\n")
}

func renderInterface(b *strings.Builder, s *Schema, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("interface ")
	b.WriteString(typ.Name)
	if len(typ.Interfaces) > 0 {
		b.WriteString(" implements ")
		for i, iface := range typ.Interfaces {
			if i > 0 {
				b.WriteString(" & ")
			}
			b.WriteString(iface)
		}
	}
	renderJoinTypes(b, s, typ)
	b.WriteString(" {\n")
	for _, field := range typ.Fields {
		if field.Meta {
			continue
		}
		renderField(b, s, field)
	}
	b.WriteString("}\n\n")
}

func renderUnion(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("union ")
	b.WriteString(typ.Name)
	if typ.Inaccessible {
		b.WriteString(" @inaccessible")
	}
	b.WriteString(" = ")
	for i, possibleType := range typ.PossibleTypes {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(possibleType)
	}
	b.WriteString("\n\n")
}

func renderField(b *strings.Builder, s *Schema, field *Field) {
	renderDescription(b, field.Description)
	b.WriteString("  ")
	b.WriteString(field.Name)
	if len(field.Arguments) > 0 {
		b.WriteString("(")
		for i, arg := range field.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(arg.Name)
			b.WriteString(": ")
			b.WriteString(renderTypeRef(arg.Type))
			if arg.DefaultValue != "" {
				b.WriteString(" = ")
				b.WriteString(arg.DefaultValue)
			}
		}
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(renderTypeRef(field.Type))

	for _, r := range field.Resolvers {
		b.WriteString(" @join__field(graph: ")
		b.WriteString(GraphEnumValue(s.Subgraphs[r.Subgraph].Name))
		if len(r.Requires) > 0 {
			b.WriteString(", requires: ")
			b.WriteString(strconv.Quote(r.Requires.String()))
		}
		if r.Cost != 1 {
			b.WriteString(", cost: ")
			b.WriteString(strconv.Itoa(r.Cost))
		}
		if r.Extension != "" {
			b.WriteString(", extension: ")
			b.WriteString(strconv.Quote(r.Extension))
		}
		b.WriteString(")")
	}
	if field.Inaccessible {
		b.WriteString(" @inaccessible")
	}
	if field.IsDeprecated {
		b.WriteString(" @deprecated")
		if field.DeprecationReason != "" {
			b.WriteString("(reason: \"")
			b.WriteString(field.DeprecationReason)
			b.WriteString("\")")
		}
	}

	b.WriteString("\n")
}

func renderDirective(b *strings.Builder, directive *Directive) {
	renderDescription(b, directive.Description)
	b.WriteString("directive @")
	b.WriteString(directive.Name)
	if len(directive.Arguments) > 0 {
		b.WriteString("(")
		for i, arg := range directive.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(arg.Name)
			b.WriteString(": ")
			b.WriteString(renderTypeRef(arg.Type))
			if arg.DefaultValue != "" {
				b.WriteString(" = ")
				b.WriteString(arg.DefaultValue)
			}
		}
		b.WriteString(")")
	}
	if directive.IsRepeatable {
		b.WriteString(" repeatable")
	}
	b.WriteString(" on ")
	for i, location := range directive.Locations {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(string(location))
	}
	b.WriteString("\n\n")
}

func renderTypeRef(typeRef *TypeRef) string {
	if typeRef == nil {
		return ""
	}

	switch typeRef.Kind {
	case TypeRefKindNamed:
		return typeRef.Named
	case TypeRefKindList:
		return "[" + renderTypeRef(typeRef.OfType) + "]"
	case TypeRefKindNonNull:
		return renderTypeRef(typeRef.OfType) + "!"
	default:
		return ""
	}
}
