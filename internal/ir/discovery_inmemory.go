package ir

import (
	"context"
	"fmt"
)

type InMemorySubgraph struct {
	Name    string
	URL     string
	Content string
}

// InMemoryDiscovery is a test implementation of Discovery that stores data in memory
type InMemoryDiscovery struct {
	subgraphs []*SubgraphMetadata
	contents  map[SubgraphID]string
}

// NewInMemoryDiscovery creates a new InMemoryDiscovery instance.
// The slice order is the subgraph declaration order.
func NewInMemoryDiscovery(subgraphs []InMemorySubgraph) *InMemoryDiscovery {
	discovery := &InMemoryDiscovery{
		subgraphs: make([]*SubgraphMetadata, 0, len(subgraphs)),
		contents:  make(map[SubgraphID]string),
	}

	for _, sg := range subgraphs {
		discovery.subgraphs = append(discovery.subgraphs, &SubgraphMetadata{
			ID:       SubgraphID(sg.Name),
			Name:     sg.Name,
			URL:      sg.URL,
			FilePath: sg.Name + ".graphql",
		})
		discovery.contents[SubgraphID(sg.Name)] = sg.Content
	}
	return discovery
}

// ListMetadata implements Discovery interface
func (d *InMemoryDiscovery) ListMetadata(ctx context.Context) ([]*SubgraphMetadata, error) {
	out := make([]*SubgraphMetadata, len(d.subgraphs))
	copy(out, d.subgraphs)
	return out, nil
}

// ReadSubgraphSDL implements Discovery interface
func (d *InMemoryDiscovery) ReadSubgraphSDL(ctx context.Context, id SubgraphID) (string, error) {
	content, exists := d.contents[id]
	if !exists {
		return "", fmt.Errorf("subgraph %q not found", id)
	}
	return content, nil
}
