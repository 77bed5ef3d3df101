package http

import (
	"context"
	"net/http"
	"slices"
	"strconv"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/ipld/go-ipld-prime/traversal"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	docstore "github.com/safval/DistributedDocumentStorage"
	"github.com/safval/DistributedDocumentStorage/codec"
	"github.com/safval/DistributedDocumentStorage/core"
	"github.com/safval/DistributedDocumentStorage/storage"
)

// ListenAndServe starts an http server bound to the given address.
func ListenAndServe(store *docstore.Store, addr string) error {
	return http.ListenAndServe(addr, Handler(store, NewRegistry()))
}

// NewRegistry returns a registry with the metrics of the document store.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(core.Collectors()...)
	reg.MustRegister(storage.Collectors()...)
	return reg
}

// Handler returns the read-only inspection API of a store.
//
//	GET /documents                  hex ids of the stored documents
//	GET /documents/{id}/{path...}   saved object tree, or a part of it, as dag-json
//	GET /metrics                    prometheus metrics
//	GET, POST /graphql              read-only GraphQL queries over the same data
//	GET /playground                 GraphQL playground
func Handler(store *docstore.Store, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /documents", listHandler(store))
	mux.Handle("GET /documents/{id}", documentHandler(store))
	mux.Handle("GET /documents/{id}/{path...}", documentHandler(store))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("GET /graphql", graphqlHandler(store))
	mux.Handle("POST /graphql", graphqlHandler(store))
	mux.Handle("GET /playground", playground.Handler("docstore", "/graphql"))
	return mux
}

func listHandler(store *docstore.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		node, err := qp.BuildList(basicnode.Prototype.Any, int64(len(ids)), func(la datamodel.ListAssembler) {
			for _, id := range ids {
				qp.ListEntry(la, qp.String(strconv.FormatUint(uint64(id), 16)))
			}
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeNode(w, node)
	})
}

func documentHandler(store *docstore.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r.PathValue("id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		node, err := loadTree(r.Context(), store, id, r.PathValue("path"))
		switch {
		case errors.Is(err, storage.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			writeNode(w, node)
		}
	})
}

func parseID(s string) (core.DocID, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid document id")
	}
	return core.DocID(v), nil
}

// loadTree returns the saved object tree of a stored document or the part
// of it at path.
func loadTree(ctx context.Context, store *docstore.Store, id core.DocID, path string) (datamodel.Node, error) {
	ids, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(ids, id) {
		return nil, errors.Wrapf(storage.ErrNotFound, "document %x", uint64(id))
	}
	var node datamodel.Node
	err = store.View(ctx, id, func(doc *core.Document) error {
		nw := codec.NewNodeWriter()
		if err := doc.Save(nw); err != nil {
			return err
		}
		node, err = nw.Node()
		return err
	})
	if err != nil || path == "" {
		return node, err
	}
	node, err = traversal.Get(node, datamodel.ParsePath(path))
	if err != nil {
		return nil, errors.Wrapf(storage.ErrNotFound, "%s: %v", path, err)
	}
	return node, nil
}

func writeNode(w http.ResponseWriter, node datamodel.Node) {
	w.Header().Set("Content-Type", "application/json")
	if err := dagjson.Encode(node, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
