package schema

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

var (
	// Standard declares the types every document store registers.
	//
	//go:embed standard.graphql
	Standard string

	//go:embed types.graphql.tmpl
	typesSource   string
	typesTemplate = template.Must(template.New("types.graphql").Funcs(typesTemplateFuncs).Parse(typesSource))

	typesTemplateFuncs = template.FuncMap(map[string]any{
		"flag": flag,
	})
)

// Object describes a registered object type.
type Object struct {
	ID       int32
	Name     string
	Top      bool
	Storage  bool
	Document bool
}

// Property describes a registered property type.
type Property struct {
	ID         int32
	Name       string
	Kind       string
	ReadOnly   bool
	NoDelete   bool
	Searchable bool
}

// Generate renders type definitions as SDL accepted by the schema loader.
func Generate(objects []Object, props []Property) (string, error) {
	var out bytes.Buffer
	err := typesTemplate.Execute(&out, map[string]any{
		"Objects":    objects,
		"Properties": props,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()) + "\n", nil
}

func flag(name string, set bool) string {
	if !set {
		return ""
	}
	return ", " + name + ": true"
}
