package ir

// populateDirectiveDefinitions accepts the federation directive declarations
// subgraphs carry for their own tooling. Custom directives are not composed.
func (b *builder) populateDirectiveDefinitions() error {
	for _, sd := range b.docs {
		for _, directive := range sd.doc.Directives {
			if federationDirectives[directive.Name] {
				continue
			}
			b.addViolation(violationCustomDirectiveDefinition(directive.Name, directive.Position))
		}
	}
	return b.result()
}
