package test

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/safval/DistributedDocumentStorage/core"
)

//go:embed cases
var casesFS embed.FS

type TestCase struct {
	// Description is a simple description for the test case.
	Description string
	// Schema declares the types used by the steps.
	Schema string
	// Steps are run in order against one document.
	Steps []Step
}

// Step is one action on the document and its expected outcome.
//
// Create, Change and Delete together form one transaction.
type Step struct {
	Create []Create
	Change []Change
	Delete [][]core.Name
	Source []core.Name
	Undo   int
	Redo   int
	Pack   int
	// Reopen closes the document and opens it again from storage.
	Reopen bool

	// Dump is the expected debug string after the step.
	Dump *string
	// Len is the expected number of transactions in the log.
	Len *int
	// Error is the expected error code.
	Error int
}

type Create struct {
	Type core.ObjType
	// In is the long name of the storage object, empty for the document root.
	In    []core.Name
	Props map[core.PropType]any
}

type Change struct {
	Name   []core.Name
	Set    map[core.PropType]any
	Remove []core.PropType
}

// TestCasePaths returns a list of all test case file paths.
func TestCasePaths() (paths []string, _ error) {
	return paths, fs.WalkDir(casesFS, "cases", func(path string, d fs.DirEntry, err error) error {
		if filepath.Ext(path) == ".yaml" {
			paths = append(paths, path)
		}
		return err
	})
}

// LoadTestCase loads and parses a test case file.
func LoadTestCase(path string) (*TestCase, error) {
	data, err := fs.ReadFile(casesFS, path)
	if err != nil {
		return nil, err
	}
	var testCase TestCase
	if err := yaml.Unmarshal(data, &testCase); err != nil {
		return nil, err
	}
	return &testCase, nil
}

// HasTransaction returns true if the step changes objects.
func (s Step) HasTransaction() bool {
	return len(s.Create) > 0 || len(s.Change) > 0 || len(s.Delete) > 0
}

// Transaction builds the transaction of a step for doc.
func (s Step) Transaction(doc *core.Document) (*core.Transaction, error) {
	trz := core.NewTransaction(s.Source...)
	for _, c := range s.Create {
		storage := &doc.Storage
		if len(c.In) > 0 {
			if storage = doc.FindStorage(c.In...); storage == nil {
				return nil, fmt.Errorf("no storage at %v", c.In)
			}
		}
		changes := trz.CreateObject(c.Type, storage)
		if err := setProps(changes, c.Props); err != nil {
			return nil, err
		}
	}
	for _, c := range s.Change {
		changes := trz.ChangeObject(c.Name...)
		if err := setProps(changes, c.Set); err != nil {
			return nil, err
		}
		for _, pt := range c.Remove {
			changes.Remove(pt)
		}
	}
	for _, name := range s.Delete {
		trz.ChangeObject(name...).Delete()
	}
	return trz, nil
}

func setProps(c *core.Changes, props map[core.PropType]any) error {
	for pt, value := range props {
		p, err := property(pt, value)
		if err != nil {
			return err
		}
		c.Set(p)
	}
	return nil
}

// property converts a YAML value. Integer lists are relations written as
// [up, names...].
func property(pt core.PropType, value any) (core.Property, error) {
	switch v := value.(type) {
	case int:
		return core.NewInt(pt, int64(v)), nil
	case float64:
		return core.NewReal(pt, v), nil
	case string:
		return core.NewString(pt, v), nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("property %d: empty relation", pt)
		}
		ints := make([]uint32, len(v))
		for i, e := range v {
			n, ok := e.(int)
			if !ok || n < 0 {
				return nil, fmt.Errorf("property %d: bad relation element %v", pt, e)
			}
			ints[i] = uint32(n)
		}
		names := make([]core.Name, len(ints)-1)
		for i, n := range ints[1:] {
			names[i] = core.Name(n)
		}
		return core.NewRelation(pt, ints[0], names...), nil
	default:
		return nil, fmt.Errorf("property %d: unsupported value %T", pt, value)
	}
}
