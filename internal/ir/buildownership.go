package ir

import (
	"sort"
	"strings"

	language "github.com/hanpama/fedgraph/internal/language"
)

func (b *builder) validateOwnership() error {
	keyFields := make(map[[3]string]bool)
	for _, use := range b.fieldSets {
		sel, err := language.ParseFieldSet(use.fields)
		if err != nil {
			b.addViolation(violationInvalidFieldSet(string(use.kind), use.fields, err.Error(), use.pos))
			continue
		}
		b.validateFieldSet(use, use.typeName, sel)
		if use.kind == fieldSetKey {
			for _, s := range sel {
				f := s.(*language.Field)
				keyFields[[3]string{use.typeName, f.Name, string(use.subgraph)}] = true
				if ownerOf(b.fieldOf(use.typeName, f.Name), use.subgraph) == nil {
					b.addViolation(violationKeyFieldNotInSubgraph(f.Name, use.typeName, string(use.subgraph), use.pos))
				}
			}
		}
	}

	names := make([]string, 0, len(b.Definitions))
	for name := range b.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := b.Definitions[name]
		switch {
		case def.Object != nil:
			for _, fd := range def.Object.OrderedFields() {
				b.validateFieldOwners(name, fd, func(o *FieldOwner) bool {
					return o.Shareable || keyFields[[3]string{name, fd.Name, string(o.Subgraph)}]
				})
			}
		case def.Interface != nil:
			for _, fd := range def.Interface.OrderedFields() {
				b.validateFieldOwners(name, fd, nil)
			}
		}
	}

	return b.result()
}

// validateFieldOwners checks that fd has a resolver and, when shareable is
// set, that every resolving owner may share it.
func (b *builder) validateFieldOwners(typeName string, fd *FieldDefinition, shareable func(*FieldOwner) bool) {
	pos := b.positions[typeName]

	var resolving []*FieldOwner
	extension := false
	for _, o := range fd.Owners {
		if o.Resolves() {
			resolving = append(resolving, o)
		}
		extension = extension || o.Extension != ""
	}
	if extension && len(fd.Owners) > 1 {
		b.addViolation(violationExtensionFieldShared(typeName, fd.Name, pos))
	}
	if len(resolving) == 0 {
		b.addViolation(violationFieldHasNoResolver(typeName, fd.Name, pos))
		return
	}
	if shareable == nil || len(resolving) < 2 {
		return
	}
	var offenders []string
	for _, o := range resolving {
		if !shareable(o) {
			offenders = append(offenders, string(o.Subgraph))
		}
	}
	if len(offenders) > 0 {
		b.addViolation(violationFieldNotShareable(typeName, fd.Name, strings.Join(offenders, ", "), pos))
	}
}

// validateFieldSet checks that every selection names a field of typeName and
// that composite fields select subfields.
func (b *builder) validateFieldSet(use *fieldSetUse, typeName string, sel language.SelectionSet) {
	for _, s := range sel {
		f := s.(*language.Field)
		fd := b.fieldOf(typeName, f.Name)
		if fd == nil {
			b.addViolation(violationFieldSetUnknownField(string(use.kind), f.Name, typeName, use.pos))
			continue
		}
		if use.kind == fieldSetRequires && use.typeName == typeName && f.Name == use.field {
			b.addViolation(violationRequiresSelf(typeName, use.field, use.pos))
			continue
		}
		named := fd.Type.unwrap()
		def := b.Definitions[named]
		composite := def != nil && (def.Object != nil || def.Interface != nil || def.Union != nil)
		switch {
		case composite && len(f.SelectionSet) == 0:
			b.addViolation(violationFieldSetMissingSelection(string(use.kind), f.Name, typeName, use.pos))
		case !composite && len(f.SelectionSet) > 0:
			b.addViolation(violationFieldSetLeafSelection(string(use.kind), f.Name, typeName, use.pos))
		case composite:
			b.validateFieldSet(use, named, f.SelectionSet)
		}
	}
}

func (b *builder) fieldOf(typeName, fieldName string) *FieldDefinition {
	def := b.Definitions[typeName]
	if def == nil {
		return nil
	}
	switch {
	case def.Object != nil:
		return def.Object.Fields[fieldName]
	case def.Interface != nil:
		return def.Interface.Fields[fieldName]
	}
	return nil
}
