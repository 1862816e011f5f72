package ir

import (
	"context"
)

type SubgraphMetadata struct {
	ID       SubgraphID
	Name     string
	URL      string
	FilePath string
}

// Discovery lists subgraphs in declaration order and reads their SDL.
type Discovery interface {
	ListMetadata(ctx context.Context) ([]*SubgraphMetadata, error)
	ReadSubgraphSDL(ctx context.Context, id SubgraphID) (string, error)
}
