package ir

import (
	"context"
	"fmt"

	language "github.com/hanpama/fedgraph/internal/language"
)

type builder struct {
	Subgraphs   []*Subgraph
	Schema      *Schema
	Definitions map[string]*Definition

	docs       []*subgraphDocument
	positions  map[string]*language.Position
	members    map[[3]string]bool
	fieldSets  []*fieldSetUse
	violations []*Violation
	discovery  Discovery
}

type subgraphDocument struct {
	subgraph *Subgraph
	doc      *language.SchemaDocument
}

// nodes returns definitions followed by extensions. Federation treats both
// as contributions of the subgraph to the composed type.
func (d *subgraphDocument) nodes() language.DefinitionList {
	out := make(language.DefinitionList, 0, len(d.doc.Definitions)+len(d.doc.Extensions))
	out = append(out, d.doc.Definitions...)
	return append(out, d.doc.Extensions...)
}

// Build composes the subgraphs listed by disc into a single project.
// Subgraphs are processed in the order the discovery returns them.
func Build(ctx context.Context, disc Discovery) (*Project, error) {
	b := &builder{
		Subgraphs:   nil,
		Schema:      nil,
		Definitions: make(map[string]*Definition),
		positions:   make(map[string]*language.Position),
		members:     make(map[[3]string]bool),
		violations:  nil,
		discovery:   disc,
	}

	if err := b.build(ctx); err != nil {
		return nil, err
	}

	return &Project{
		Subgraphs:   b.Subgraphs,
		Schema:      b.Schema,
		Definitions: b.Definitions,
	}, nil
}

func (b *builder) build(ctx context.Context) (err error) {
	metas, err := b.discovery.ListMetadata(ctx)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		return fmt.Errorf("no subgraphs discovered")
	}

	seen := make(map[SubgraphID]bool, len(metas))
	for i, sm := range metas {
		if seen[sm.ID] {
			b.addViolation(violationDuplicateSubgraph(sm.ID))
			continue
		}
		seen[sm.ID] = true
		b.Subgraphs = append(b.Subgraphs, &Subgraph{
			ID:          sm.ID,
			Name:        sm.Name,
			Index:       i,
			URL:         sm.URL,
			FilePath:    sm.FilePath,
			Definitions: []string{},
		})
	}
	if len(b.violations) > 0 {
		return ValidationError(b.violations)
	}

	// Parse subgraph SDL files
	for _, sg := range b.Subgraphs {
		sdl, err := b.discovery.ReadSubgraphSDL(ctx, sg.ID)
		if err != nil {
			return err
		}
		document, err := language.ParseSchema(sg.FilePath, sdl)
		if err != nil {
			return fmt.Errorf("subgraph %q: %w", sg.ID, err)
		}
		b.docs = append(b.docs, &subgraphDocument{subgraph: sg, doc: document})
	}

	// Load built-in scalars
	b.Definitions["String"] = &Definition{Scalar: StringType}
	b.Definitions["Int"] = &Definition{Scalar: IntType}
	b.Definitions["Float"] = &Definition{Scalar: FloatType}
	b.Definitions["Boolean"] = &Definition{Scalar: BooleanType}
	b.Definitions["ID"] = &Definition{Scalar: IDType}

	// Merge type definitions contributed by every subgraph
	if err = b.populateDefinitions(); err != nil {
		return err
	}

	if err = b.processSchemaDefinitions(); err != nil {
		return err
	}

	// Merge fields, input values and enum values
	if err = b.populateReferences(); err != nil {
		return err
	}

	// Interface implementations and union members
	if err = b.populateImplementations(); err != nil {
		return err
	}

	if err = b.populateDirectiveDefinitions(); err != nil {
		return err
	}

	// Federation directives (@key, @requires, @external, ...)
	if err = b.populateDirectiveUses(); err != nil {
		return err
	}

	// Every field must be resolvable and ownership must be unambiguous
	if err = b.validateOwnership(); err != nil {
		return err
	}

	return nil
}

func (b *builder) addViolation(v ...*Violation) {
	b.violations = append(b.violations, v...)
}

func (b *builder) result() error {
	if len(b.violations) > 0 {
		return ValidationError(b.violations)
	}
	return nil
}
