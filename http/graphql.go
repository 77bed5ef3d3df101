package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	docstore "github.com/safval/DistributedDocumentStorage"
	"github.com/safval/DistributedDocumentStorage/storage"
)

const inspectSchema = `
scalar JSON

type Query {
	"Registered object and property types as SDL."
	types: String!
	"Hex ids of the stored documents."
	documents: [String!]!
	document(id: String!): Document
}

type Document {
	id: String!
	"Saved object tree, or the part of it at path."
	tree(path: String): JSON
}
`

var schema = gqlparser.MustLoadSchema(&ast.Source{Name: "inspect.graphql", Input: inspectSchema})

// QueryParams contains all of the parameters for a query.
type QueryParams struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// QueryResponse contains the fields expected from a GraphQL http response.
type QueryResponse struct {
	Data   any           `json:"data"`
	Errors gqlerror.List `json:"errors,omitempty"`
}

func graphqlHandler(store *docstore.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params QueryParams
		switch r.Method {
		case http.MethodGet:
			values := r.URL.Query()
			params.Query = values.Get("query")
			params.OperationName = values.Get("operationName")
			if values.Has("variables") {
				if err := json.Unmarshal([]byte(values.Get("variables")), &params.Variables); err != nil {
					http.Error(w, "failed to parse variables: "+err.Error(), http.StatusBadRequest)
					return
				}
			}
		default:
			if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
				http.Error(w, "failed to parse body: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		var resp QueryResponse
		data, err := execute(r.Context(), store, params)
		if err != nil {
			resp.Errors = errorList(err)
		} else {
			resp.Data = data
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func errorList(err error) gqlerror.List {
	var list gqlerror.List
	if errors.As(err, &list) {
		return list
	}
	return gqlerror.List{gqlerror.WrapIfUnwrapped(err)}
}

type request struct {
	store *docstore.Store
	oc    *graphql.OperationContext
}

func execute(ctx context.Context, store *docstore.Store, params QueryParams) (map[string]any, error) {
	doc, errs := gqlparser.LoadQuery(schema, params.Query)
	if errs != nil {
		return nil, errs
	}
	var op *ast.OperationDefinition
	if params.OperationName != "" {
		op = doc.Operations.ForName(params.OperationName)
	} else if len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	if op == nil {
		return nil, gqlerror.Errorf("operation is not defined")
	}
	if op.Operation != ast.Query {
		return nil, gqlerror.Errorf("unsupported operation %s", op.Operation)
	}
	q := &request{
		store: store,
		oc: &graphql.OperationContext{
			RawQuery:  params.Query,
			Variables: params.Variables,
			Doc:       doc,
		},
	}
	return q.query(ctx, op.SelectionSet)
}

func (q *request) collect(sel ast.SelectionSet, typeName string) []graphql.CollectedField {
	return graphql.CollectFields(q.oc, sel, []string{typeName})
}

func (q *request) arg(f graphql.CollectedField, name string) any {
	return f.ArgumentMap(q.oc.Variables)[name]
}

func (q *request) query(ctx context.Context, sel ast.SelectionSet) (map[string]any, error) {
	out := make(map[string]any)
	for _, f := range q.collect(sel, "Query") {
		switch f.Name {
		case "__typename":
			out[f.Alias] = "Query"
		case "__schema":
			out[f.Alias] = q.introspectSchema(introspection.WrapSchema(schema), f.SelectionSet)
		case "__type":
			name, _ := q.arg(f, "name").(string)
			out[f.Alias] = q.introspectType(lookupType(name), f.SelectionSet)
		case "types":
			sdl, err := q.store.Env().Types.SDL()
			if err != nil {
				return nil, err
			}
			out[f.Alias] = sdl
		case "documents":
			ids, err := q.store.List(ctx)
			if err != nil {
				return nil, err
			}
			res := make([]string, len(ids))
			for i, id := range ids {
				res[i] = strconv.FormatUint(uint64(id), 16)
			}
			out[f.Alias] = res
		case "document":
			id, _ := q.arg(f, "id").(string)
			res, err := q.document(ctx, id, f.SelectionSet)
			if err != nil {
				return nil, err
			}
			out[f.Alias] = res
		}
	}
	return out, nil
}

// document resolves a Document selection. A document that is not stored
// resolves to null.
func (q *request) document(ctx context.Context, hexID string, sel ast.SelectionSet) (any, error) {
	id, err := parseID(hexID)
	if err != nil {
		return nil, err
	}
	ids, err := q.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(ids, id) {
		return nil, nil
	}
	out := make(map[string]any)
	for _, f := range q.collect(sel, "Document") {
		switch f.Name {
		case "__typename":
			out[f.Alias] = "Document"
		case "id":
			out[f.Alias] = strconv.FormatUint(uint64(id), 16)
		case "tree":
			path, _ := q.arg(f, "path").(string)
			node, err := loadTree(ctx, q.store, id, path)
			if errors.Is(err, storage.ErrNotFound) {
				out[f.Alias] = nil
				continue
			}
			if err != nil {
				return nil, err
			}
			var buf bytes.Buffer
			if err := dagjson.Encode(node, &buf); err != nil {
				return nil, err
			}
			out[f.Alias] = json.RawMessage(buf.Bytes())
		}
	}
	return out, nil
}

func lookupType(name string) *introspection.Type {
	def, ok := schema.Types[name]
	if !ok {
		return nil
	}
	return introspection.WrapTypeFromDef(schema, def)
}

func (q *request) introspectSchema(s *introspection.Schema, sel ast.SelectionSet) map[string]any {
	out := make(map[string]any)
	for _, f := range q.collect(sel, "__Schema") {
		switch f.Name {
		case "__typename":
			out[f.Alias] = "__Schema"
		case "types":
			out[f.Alias] = q.introspectTypes(s.Types(), f.SelectionSet)
		case "queryType":
			out[f.Alias] = q.introspectType(s.QueryType(), f.SelectionSet)
		case "mutationType":
			out[f.Alias] = q.introspectType(s.MutationType(), f.SelectionSet)
		case "subscriptionType":
			out[f.Alias] = q.introspectType(s.SubscriptionType(), f.SelectionSet)
		case "directives":
			res := make([]any, 0, len(s.Directives()))
			for _, d := range s.Directives() {
				res = append(res, q.introspectDirective(d, f.SelectionSet))
			}
			out[f.Alias] = res
		}
	}
	return out
}

func (q *request) introspectTypes(types []introspection.Type, sel ast.SelectionSet) []any {
	res := make([]any, 0, len(types))
	for _, t := range types {
		res = append(res, q.introspectType(&t, sel))
	}
	return res
}

func (q *request) introspectType(t *introspection.Type, sel ast.SelectionSet) any {
	if t == nil {
		return nil
	}
	out := make(map[string]any)
	for _, f := range q.collect(sel, "__Type") {
		switch f.Name {
		case "__typename":
			out[f.Alias] = "__Type"
		case "kind":
			out[f.Alias] = t.Kind()
		case "name":
			out[f.Alias] = t.Name()
		case "description":
			out[f.Alias] = t.Description()
		case "fields":
			deprecated, _ := q.arg(f, "includeDeprecated").(bool)
			fields := t.Fields(deprecated)
			if fields == nil {
				out[f.Alias] = nil
				continue
			}
			res := make([]any, 0, len(fields))
			for _, fd := range fields {
				res = append(res, q.introspectField(fd, f.SelectionSet))
			}
			out[f.Alias] = res
		case "interfaces":
			out[f.Alias] = q.introspectTypes(t.Interfaces(), f.SelectionSet)
		case "possibleTypes":
			out[f.Alias] = q.introspectTypes(t.PossibleTypes(), f.SelectionSet)
		case "enumValues":
			deprecated, _ := q.arg(f, "includeDeprecated").(bool)
			values := t.EnumValues(deprecated)
			if values == nil {
				out[f.Alias] = nil
				continue
			}
			res := make([]any, 0, len(values))
			for _, v := range values {
				res = append(res, q.introspectEnumValue(v, f.SelectionSet))
			}
			out[f.Alias] = res
		case "inputFields":
			out[f.Alias] = q.introspectInputValues(t.InputFields(), f.SelectionSet)
		case "ofType":
			out[f.Alias] = q.introspectType(t.OfType(), f.SelectionSet)
		}
	}
	return out
}

func (q *request) introspectField(fd introspection.Field, sel ast.SelectionSet) map[string]any {
	out := make(map[string]any)
	for _, f := range q.collect(sel, "__Field") {
		switch f.Name {
		case "__typename":
			out[f.Alias] = "__Field"
		case "name":
			out[f.Alias] = fd.Name
		case "description":
			out[f.Alias] = fd.Description()
		case "args":
			out[f.Alias] = q.introspectInputValues(fd.Args, f.SelectionSet)
		case "type":
			out[f.Alias] = q.introspectType(fd.Type, f.SelectionSet)
		case "isDeprecated":
			out[f.Alias] = fd.IsDeprecated()
		case "deprecationReason":
			out[f.Alias] = fd.DeprecationReason()
		}
	}
	return out
}

func (q *request) introspectInputValues(values []introspection.InputValue, sel ast.SelectionSet) []any {
	res := make([]any, 0, len(values))
	for _, v := range values {
		out := make(map[string]any)
		for _, f := range q.collect(sel, "__InputValue") {
			switch f.Name {
			case "__typename":
				out[f.Alias] = "__InputValue"
			case "name":
				out[f.Alias] = v.Name
			case "description":
				out[f.Alias] = v.Description()
			case "defaultValue":
				out[f.Alias] = v.DefaultValue
			case "type":
				out[f.Alias] = q.introspectType(v.Type, f.SelectionSet)
			}
		}
		res = append(res, out)
	}
	return res
}

func (q *request) introspectEnumValue(v introspection.EnumValue, sel ast.SelectionSet) map[string]any {
	out := make(map[string]any)
	for _, f := range q.collect(sel, "__EnumValue") {
		switch f.Name {
		case "__typename":
			out[f.Alias] = "__EnumValue"
		case "name":
			out[f.Alias] = v.Name
		case "description":
			out[f.Alias] = v.Description()
		case "isDeprecated":
			out[f.Alias] = v.IsDeprecated()
		case "deprecationReason":
			out[f.Alias] = v.DeprecationReason()
		}
	}
	return out
}

func (q *request) introspectDirective(d introspection.Directive, sel ast.SelectionSet) map[string]any {
	out := make(map[string]any)
	for _, f := range q.collect(sel, "__Directive") {
		switch f.Name {
		case "__typename":
			out[f.Alias] = "__Directive"
		case "name":
			out[f.Alias] = d.Name
		case "description":
			out[f.Alias] = d.Description()
		case "locations":
			out[f.Alias] = d.Locations
		case "args":
			out[f.Alias] = q.introspectInputValues(d.Args, f.SelectionSet)
		}
	}
	return out
}
