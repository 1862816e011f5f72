package ir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest lists the subgraphs of a supergraph.
//
//	subgraphs:
//	  - name: accounts
//	    url: http://accounts:4001/graphql
//	    schema: accounts.graphql
type Manifest struct {
	Subgraphs []ManifestSubgraph `yaml:"subgraphs"`
}

type ManifestSubgraph struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Schema string `yaml:"schema"`
}

// ManifestDiscovery implements Discovery for a YAML manifest. Schema paths
// are resolved relative to the manifest file.
type ManifestDiscovery struct {
	dir   string
	metas []*SubgraphMetadata
	paths map[SubgraphID]string
}

func NewManifestDiscovery(manifestPath string) (*ManifestDiscovery, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %q: %w", manifestPath, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %q: %w", manifestPath, err)
	}
	if len(m.Subgraphs) == 0 {
		return nil, fmt.Errorf("manifest %q lists no subgraphs", manifestPath)
	}

	d := &ManifestDiscovery{
		dir:   filepath.Dir(manifestPath),
		paths: make(map[SubgraphID]string, len(m.Subgraphs)),
	}
	for i, sg := range m.Subgraphs {
		if sg.Name == "" {
			return nil, fmt.Errorf("manifest %q: subgraph #%d has no name", manifestPath, i)
		}
		if sg.Schema == "" {
			return nil, fmt.Errorf("manifest %q: subgraph %q has no schema", manifestPath, sg.Name)
		}
		id := SubgraphID(sg.Name)
		if _, dup := d.paths[id]; dup {
			return nil, fmt.Errorf("manifest %q: subgraph %q is listed twice", manifestPath, sg.Name)
		}
		p := sg.Schema
		if !filepath.IsAbs(p) {
			p = filepath.Join(d.dir, p)
		}
		d.paths[id] = p
		d.metas = append(d.metas, &SubgraphMetadata{
			ID:       id,
			Name:     sg.Name,
			URL:      sg.URL,
			FilePath: sg.Schema,
		})
	}
	return d, nil
}

// ListMetadata returns subgraphs in manifest order
func (d *ManifestDiscovery) ListMetadata(ctx context.Context) ([]*SubgraphMetadata, error) {
	out := make([]*SubgraphMetadata, len(d.metas))
	copy(out, d.metas)
	return out, nil
}

// ReadSubgraphSDL reads the GraphQL SDL content for a given subgraph
func (d *ManifestDiscovery) ReadSubgraphSDL(ctx context.Context, id SubgraphID) (string, error) {
	fp, ok := d.paths[id]
	if !ok {
		return "", fmt.Errorf("subgraph %q not found", id)
	}
	content, err := os.ReadFile(fp)
	if err != nil {
		return "", fmt.Errorf("failed to read subgraph SDL for %q: %w", id, err)
	}
	return string(content), nil
}

// Load is a convenience function that reads a manifest and builds the project
func Load(manifestPath string) (*Project, error) {
	discovery, err := NewManifestDiscovery(manifestPath)
	if err != nil {
		return nil, err
	}
	return Build(context.Background(), discovery)
}
