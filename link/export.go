package link

import (
	"context"
	"fmt"
	"io"

	"github.com/ipld/go-car/v2"
	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/ipld/go-ipld-prime/traversal/selector"
	"github.com/ipld/go-ipld-prime/traversal/selector/builder"
)

// exploreAll matches every block reachable from the root.
var exploreAll = func() datamodel.Node {
	ssb := builder.NewSelectorSpecBuilder(basicnode.Prototype.Any)
	return ssb.ExploreRecursive(selector.RecursionLimitNone(), ssb.ExploreAll(ssb.ExploreRecursiveEdge())).Node()
}()

// Export writes a CARv1 with root as its only root followed by every block
// reachable from it. Shared blocks are written once.
func (s *Store) Export(ctx context.Context, root datamodel.Link, out io.Writer) error {
	cl, ok := root.(cidlink.Link)
	if !ok {
		return fmt.Errorf("export %s: not a cid link", root)
	}
	w, err := car.NewSelectiveWriter(ctx, &s.lsys, cl.Cid, exploreAll)
	if err != nil {
		return fmt.Errorf("export %s: %w", cl, err)
	}
	if _, err := w.WriteTo(out); err != nil {
		return fmt.Errorf("export %s: %w", cl, err)
	}
	return nil
}
