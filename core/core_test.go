package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testTop      ObjType = 500
	testObject1  ObjType = 501
	testObject2  ObjType = 502
	testStorage1 ObjType = 551
	testStorage2 ObjType = 552
	testDocument ObjType = 553

	testInt1     PropType = 551
	testInt2     PropType = 552
	testInt3     PropType = 553
	testLink     PropType = 554
	testOwner    PropType = 555
	testReal     PropType = 560
	testString   PropType = 561
	testReadOnly PropType = 997
	testNoDelete PropType = 996
	treeFolder   PropType = 99
)

const testSchema = `
scalar testInt1 @property(id: 551)
scalar testInt2 @property(id: 552)
scalar testInt3 @property(id: 553)
scalar testLink @property(id: 554, kind: "relation")
scalar testOwner @property(id: 555, kind: "relation", noDelete: true)
scalar testReadOnly @property(id: 997, readonly: true)
scalar testNoDelete @property(id: 996, noDelete: true)
scalar treeFolder @property(id: 99, kind: "relation")
scalar testReal @property(id: 560, kind: "real")
scalar testString @property(id: 561, kind: "string")

type testTop @object(id: 500, top: true) { testInt1: testInt1 }
type testObject1 @object(id: 501) { testLink: testLink }
type testObject2 @object(id: 502) { testLink: testLink }
type testStorage1 @object(id: 551, storage: true) { testInt2: testInt2 }
type testStorage2 @object(id: 552, storage: true) { testInt3: testInt3 }
type testDocument @object(id: 553, document: true) { docId: docId }
`

var errStorage2 = errors.New("storage object rejects testInt3")

// counter records the changes delivered to an object.
type counter struct {
	count int
	last  State
}

func (c *counter) OnChange(o *Object, changes State) error {
	c.count++
	c.last = changes
	return nil
}

func newTestTypes(t testing.TB) *Types {
	types := NewTypes()
	require.NoError(t, types.AddStandardTypes())
	newCounter := func() Handler { return &counter{} }
	handlers := map[string]ObjectFactory{
		"testTop":      newCounter,
		"testObject1":  newCounter,
		"testObject2":  newCounter,
		"testStorage1": newCounter,
		"testDocument": newCounter,
		"testStorage2": func() Handler {
			return HandlerFunc(func(o *Object, changes State) error {
				if o.Prop(testInt3) != nil {
					return errStorage2
				}
				return nil
			})
		},
	}
	require.NoError(t, types.LoadSchema(testSchema, handlers))
	return types
}

func newTestEnv(t testing.TB) *Env {
	return NewEnv(newTestTypes(t))
}

func counterOf(t testing.TB, o *Object) *counter {
	require.NotNil(t, o)
	c, ok := o.Handler().(*counter)
	require.True(t, ok)
	return c
}

func notify(t testing.TB, doc *Document, trz *Transaction) {
	t.Helper()
	require.NoError(t, doc.Notify(trz))
}

func hubNotify(t testing.TB, hub *Hub, trz *Transaction) {
	t.Helper()
	require.NoError(t, hub.Notify(trz))
}

func requireCode(t testing.TB, code int, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, Code(err), err.Error())
}
