package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectEdit(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	notify(t, doc, trz)

	require.Equal(t, 1, doc.Size(true))
	top := doc.FindByType(testTop)
	require.NotNil(t, top)
	assert.Equal(t, 0, top.PropCount())
	assert.Equal(t, "500#1[]", doc.DebugString())
	assert.Equal(t, Created, counterOf(t, top).last)
	assert.True(t, top.IsActive())

	trz = NewTransaction()
	trz.ChangeObject(1).Set(NewInt(testInt1, 0))
	notify(t, doc, trz)
	assert.Same(t, top, doc.FindByName(1))
	assert.Equal(t, int64(0), top.Prop(testInt1).(*Int).Value)
	assert.Equal(t, "500#1[551:0]", doc.DebugString())
	assert.Equal(t, PropAdded, counterOf(t, top).last)

	trz = NewTransaction()
	trz.ChangeObject(1).Set(NewInt(testInt1, 100))
	notify(t, doc, trz)
	assert.Equal(t, "500#1[551:100]", doc.DebugString())
	assert.Equal(t, PropChanged, counterOf(t, top).last)

	trz = NewTransaction()
	trz.ChangeObject(1).Remove(testInt1)
	notify(t, doc, trz)
	assert.Equal(t, 0, top.PropCount())
	assert.Equal(t, "500#1[]", doc.DebugString())
	assert.Equal(t, PropDeleted, counterOf(t, top).last)

	trz = NewTransaction()
	c1 := trz.ChangeObject(1)
	c2 := trz.ChangeObject(1)
	assert.Same(t, c1, c2)
	c1.Set(NewInt(testInt1, 200))
	c2.Set(NewInt(testInt2, 300))
	notify(t, doc, trz)
	assert.Equal(t, "500#1[551:200,552:300]", doc.DebugString())

	trz = NewTransaction()
	trz.ChangeObject(1).
		Set(NewInt(testInt1, 201)).
		Remove(testInt1).
		Remove(testInt2).
		Set(NewInt(testInt2, 301))
	notify(t, doc, trz)
	require.Equal(t, 1, top.PropCount())
	assert.Equal(t, int64(301), top.Prop(testInt2).(*Int).Value)
	assert.Equal(t, PropChanged|PropDeleted, counterOf(t, top).last)

	// The same transaction can be applied again after more edits.
	trz = NewTransaction()
	changes := trz.ChangeObject(1)
	changes.Set(NewInt(testInt2, 101))
	notify(t, doc, trz)
	assert.Equal(t, int64(101), top.Prop(testInt2).(*Int).Value)
	changes.Set(NewInt(testInt2, 1001))
	changes.Set(NewInt(testInt2, 301))
	notify(t, doc, trz)
	assert.Equal(t, int64(301), top.Prop(testInt2).(*Int).Value)
	assert.Equal(t, PropChanged, counterOf(t, top).last)
}

func TestObjectRestrictions(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage).
		Set(NewInt(testReadOnly, 1)).
		Set(NewInt(testNoDelete, 1))
	notify(t, doc, trz)
	top := doc.FindByType(testTop)
	assert.Equal(t, Created|PropAdded, counterOf(t, top).last)
	counterOf(t, top).last = 0

	trz = NewTransaction()
	trz.ChangeObject(1).Remove(testNoDelete)
	requireCode(t, ErrNotDeletable.Code, doc.Notify(trz))
	assert.Equal(t, State(0), counterOf(t, top).last)

	trz = NewTransaction()
	trz.ChangeObject(1).Set(NewInt(testReadOnly, 222))
	requireCode(t, ErrReadOnlyProperty.Code, doc.Notify(trz))
	assert.Equal(t, State(0), counterOf(t, top).last)

	// Setting a property again cancels its removal.
	trz = NewTransaction()
	trz.ChangeObject(1).Remove(testNoDelete).Set(NewInt(testNoDelete, 2))
	notify(t, doc, trz)

	trz = NewTransaction()
	trz.ChangeObject(1).Remove(testReadOnly).Set(NewInt(testReadOnly, 222))
	requireCode(t, ErrReadOnlyProperty.Code, doc.Notify(trz))

	trz = NewTransaction()
	trz.ChangeObject(1).Remove(testReadOnly)
	notify(t, doc, trz)
	trz = NewTransaction()
	trz.ChangeObject(1).Set(NewInt(testReadOnly, 2))
	notify(t, doc, trz)
	assert.Equal(t, "500#1[996:2,997:2]", doc.DebugString())
}

func TestObjectCreateDelete(t *testing.T) {
	doc := NewDocument(newTestEnv(t))
	assert.Nil(t, doc.Owner())

	notify(t, doc, NewTransaction())
	require.Equal(t, 0, doc.Size(true))

	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	notify(t, doc, trz)
	obj := doc.FindByName(1)
	require.NotNil(t, obj)
	assert.True(t, obj.IsActive())
	assert.Equal(t, 1, counterOf(t, obj).count)

	notify(t, doc, NewTransaction())
	assert.Equal(t, "500#1[]", doc.DebugString())

	trz = NewTransaction()
	trz.CreateObject(testObject1, &doc.Storage)
	trz.CreateObject(testObject1, &doc.Storage)
	trz.CreateObject(testObject2, &doc.Storage)
	notify(t, doc, trz)
	assert.Equal(t, 4, doc.Size(true))
	for n := Name(1); n <= 4; n++ {
		assert.NotNil(t, doc.FindByName(n))
	}

	toDelete := doc.FindByName(4)
	trz = NewTransaction()
	trz.CreateObject(testStorage1, &doc.Storage)
	trz.ChangeObject(4).Delete()
	notify(t, doc, trz)
	assert.Equal(t, 4, doc.Size(true))
	assert.Nil(t, doc.FindByName(4))
	require.NotNil(t, doc.FindByName(5))
	assert.Equal(t, testStorage1, doc.FindByName(5).Type())
	assert.NotNil(t, doc.FindByName(5).AsStorage())
	assert.False(t, toDelete.IsActive())

	trz = NewTransaction()
	trz.CreateObject(testObject1, doc.FindStorage(5))
	notify(t, doc, trz)
	assert.Equal(t, 4, doc.Size(false))
	assert.Equal(t, 5, doc.Size(true))

	trz = NewTransaction()
	trz.CreateObject(testStorage1, doc.FindStorage(5))
	notify(t, doc, trz)
	assert.Equal(t, 6, doc.Size(true))
	assert.Equal(t, "500#1[]501#2[]501#3[]551#5[501#1[]551#2[]]", doc.DebugString())

	storage3 := doc.FindStorage(5, 2)
	require.NotNil(t, storage3)
	trz = NewTransaction()
	trz.CreateObject(testObject2, storage3)
	trz.CreateObject(testObject2, storage3)
	trz.CreateObject(testObject2, storage3)
	notify(t, doc, trz)
	assert.Equal(t, 9, doc.Size(true))
	assert.Equal(t, "500#1[]501#2[]501#3[]551#5[501#1[]551#2[502#1[]502#2[]502#3[]]]", doc.DebugString())
	assert.Equal(t, LongName{5, 2, 3}, doc.Find(LongName{5, 2, 3}).LongName())

	trz = NewTransaction()
	trz.ChangeObject(5, 2, 2).Delete()
	notify(t, doc, trz)
	assert.Equal(t, "500#1[]501#2[]501#3[]551#5[501#1[]551#2[502#1[]502#3[]]]", doc.DebugString())

	// Changes addressed to missing objects are ignored.
	trz = NewTransaction()
	trz.ChangeObject(4).Delete()
	trz.ChangeObject(5, 2, 2).Delete()
	trz.ChangeObject(2, 2).Delete()
	trz.ChangeObject(9999, 2).Delete()
	notify(t, doc, trz)
	assert.Equal(t, "500#1[]501#2[]501#3[]551#5[501#1[]551#2[502#1[]502#3[]]]", doc.DebugString())

	trz = NewTransaction()
	trz.ChangeObject(5).Delete()
	trz.ChangeObject(5, 2, 1).Delete()
	trz.ChangeObject(5).Set(NewInt(testInt1, 0))
	notify(t, doc, trz)
	trz.ChangeObject(3).Delete()
	notify(t, doc, trz)
	assert.Equal(t, 2, doc.Size(false))
	assert.Equal(t, 2, doc.Size(true))
	assert.Equal(t, "500#1[]501#2[]", doc.DebugString())

	trz = NewTransaction()
	trz.CreateObject(testObject2, &doc.Storage)
	notify(t, doc, trz)
	assert.Equal(t, "500#1[]501#2[]502#6[]", doc.DebugString())

	trz = NewTransaction()
	trz.CreateObject(testObject1, &doc.Storage).Delete()
	notify(t, doc, trz)
	assert.Equal(t, "500#1[]501#2[]502#6[]", doc.DebugString())
}

func TestObjectReactivate(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	trz.CreateObject(testObject1, &doc.Storage).Set(NewInt(testInt1, 1))
	notify(t, doc, trz)
	obj := doc.FindByName(2)

	trz = NewTransaction()
	trz.ChangeObject(2).Delete()
	notify(t, doc, trz)
	assert.Nil(t, doc.FindByName(2))

	trz = NewTransaction()
	trz.ChangeObject(2).typ = testObject1
	notify(t, doc, trz)
	assert.Same(t, obj, doc.FindByName(2))
	assert.Equal(t, Created, counterOf(t, obj).last)
	assert.Equal(t, "500#1[]501#2[]", doc.DebugString())
	assert.Equal(t, Name(3), doc.NextName())
}

func TestObjectCreateErrors(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testObject1, &doc.Storage)
	trz.CreateObject(testTop, &doc.Storage)
	requireCode(t, ErrTopObjectName.Code, doc.Notify(trz))

	doc = NewDocument(newTestEnv(t))
	trz = NewTransaction()
	trz.CreateObject(700, &doc.Storage)
	requireCode(t, ErrUnknownObjType.Code, doc.Notify(trz))

	doc = NewDocument(newTestEnv(t))
	trz = NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	notify(t, doc, trz)
	requireCode(t, ErrNameInUse.Code, doc.Notify(trz))

	assert.PanicsWithError(t, "error 1277: invalid object type to create: -4", func() {
		NewTransaction().CreateObject(TypeDeleted, &doc.Storage)
	})
}

func TestLinkAutodeleteProperty(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	trz.CreateObject(testObject1, &doc.Storage).Set(NewRelation(treeFolder, 0, 1))
	notify(t, doc, trz)
	assert.Equal(t, "500#1[]501#2[99:[0,1]]", doc.DebugString())

	def, err := doc.Env().Types.Property(treeFolder)
	require.NoError(t, err)
	assert.False(t, def.Has(NoDelete))

	trz = NewTransaction()
	trz.ChangeObject(1).Delete()
	notify(t, doc, trz)
	assert.Equal(t, "501#2[]", doc.DebugString())
}

func TestLinkTwoObjects(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	trz.CreateObject(testObject1, &doc.Storage).Set(NewRelation(treeFolder, 0, 1))
	notify(t, doc, trz)
	top := doc.FindByType(testTop)
	obj := doc.FindByType(testObject1)
	assert.Equal(t, Created|LinkAdded, counterOf(t, top).last)
	assert.Equal(t, Created|PropAdded, counterOf(t, obj).last)
	assert.Equal(t, []*Object{obj}, top.Referrers(treeFolder))
	assert.Same(t, top, obj.Prop(treeFolder).(*Relation).Target(obj))

	trz = NewTransaction()
	trz.Change(top).Set(NewInt(testInt1, 1))
	notify(t, doc, trz)
	assert.Equal(t, PropAdded, counterOf(t, top).last)
	assert.Equal(t, ParentChanged, counterOf(t, obj).last)

	trz = NewTransaction()
	trz.Change(obj).Remove(treeFolder)
	notify(t, doc, trz)
	assert.Equal(t, LinkDeleted, counterOf(t, top).last)
	assert.Equal(t, PropDeleted, counterOf(t, obj).last)
	assert.Empty(t, top.Referrers(0))
}

func TestLinkThreeObjects(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	trz.CreateObject(testObject1, &doc.Storage).Set(NewRelation(treeFolder, 0, 1))
	trz.CreateObject(testObject2, &doc.Storage).Set(NewRelation(treeFolder, 0, 2))
	notify(t, doc, trz)
	assert.Equal(t, "500#1[]501#2[99:[0,1]]502#3[99:[0,2]]", doc.DebugString())

	obj1 := counterOf(t, doc.FindByName(1))
	obj2 := counterOf(t, doc.FindByName(2))
	obj3 := counterOf(t, doc.FindByName(3))

	reset := func() { obj1.last, obj2.last, obj3.last = 0, 0, 0 }

	reset()
	trz = NewTransaction()
	trz.ChangeObject(1).Set(NewInt(testInt1, 10))
	notify(t, doc, trz)
	assert.Equal(t, PropAdded, obj1.last)
	assert.Equal(t, ParentChanged, obj2.last)
	assert.Equal(t, State(0), obj3.last)

	second := doc.FindByName(2)
	reset()
	trz = NewTransaction()
	trz.ChangeObject(2).Delete()
	notify(t, doc, trz)
	assert.Equal(t, LinkDeleted, obj1.last)
	assert.Equal(t, Deleted|LinkDeleted, obj2.last)
	assert.Equal(t, ParentDeleted|PropDeleted, obj3.last)
	assert.True(t, doc.FindByName(1).IsActive())
	assert.False(t, second.IsActive())
	assert.True(t, doc.FindByName(3).IsActive())
}

func TestLinkCascadeDelete(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	trz.CreateObject(testObject1, &doc.Storage).Set(NewRelation(testOwner, 0, 1))
	trz.CreateObject(testObject2, &doc.Storage).Set(NewRelation(testOwner, 0, 2))
	trz.CreateObject(testObject2, &doc.Storage).Set(NewRelation(treeFolder, 0, 3))
	notify(t, doc, trz)

	obj2 := counterOf(t, doc.FindByName(2))
	obj3 := counterOf(t, doc.FindByName(3))
	trz = NewTransaction()
	trz.ChangeObject(1).Delete()
	notify(t, doc, trz)
	assert.Equal(t, "502#4[]", doc.DebugString())
	assert.Equal(t, ParentDeleted|PropDeleted, counterOf(t, doc.FindByName(4)).last)
	assert.Equal(t, Deleted, obj2.last&(Deleted|ParentDeleted))
	assert.Equal(t, Deleted, obj3.last&(Deleted|ParentDeleted))
}

func TestRemoveInactive(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	trz.CreateObject(testObject1, &doc.Storage)
	notify(t, doc, trz)
	obj := doc.FindByName(2)
	c := counterOf(t, obj)

	trz = NewTransaction()
	trz.ChangeObject(2).Delete()
	notify(t, doc, trz)
	assert.False(t, obj.IsActive())
	assert.Equal(t, 2, c.count)

	removed, err := obj.remove()
	require.NoError(t, err)
	assert.False(t, removed)
	require.NoError(t, doc.initAll())
	assert.Equal(t, 2, c.count)
}

func TestLinkCycleDelete(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testObject1, &doc.Storage).Set(NewRelation(testOwner, 0, 2))
	trz.CreateObject(testObject2, &doc.Storage).Set(NewRelation(testOwner, 0, 1))
	trz.CreateObject(testObject2, &doc.Storage).Set(NewRelation(testOwner, 0, 3))
	notify(t, doc, trz)
	assert.Len(t, doc.FindByName(3).Referrers(testOwner), 1)

	trz = NewTransaction()
	trz.ChangeObject(1).Delete()
	trz.ChangeObject(3).Delete()
	notify(t, doc, trz)
	assert.Equal(t, "", doc.DebugString())
}

func TestLinks(t *testing.T) {
	doc := NewDocument(newTestEnv(t))
	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	trz.CreateObject(testObject1, &doc.Storage)
	trz.ChangeObject(2).Set(NewRelation(testLink, 0, 1))
	notify(t, doc, trz)
	assert.Equal(t, 0, doc.FindByName(1).PropCount())
	assert.Equal(t, 1, doc.FindByName(2).PropCount())
	assert.Equal(t, "500#1[]501#2[554:[0,1]]", doc.DebugString())

	doc = NewDocument(newTestEnv(t))
	trz = NewTransaction()
	trz.CreateObject(testTop, &doc.Storage).Set(NewRelation(testLink, 0, 1))
	notify(t, doc, trz)
	top := doc.FindByType(testTop)
	assert.Same(t, top, top.Prop(testLink).(*Relation).Target(top))
	assert.Equal(t, 1, counterOf(t, top).count)
	assert.Equal(t, "500#1[554:[0,1]]", doc.DebugString())

	doc = NewDocument(newTestEnv(t))
	trz = NewTransaction()
	trz.CreateObject(testTop, &doc.Storage).Set(NewRelation(testLink, 0, 999))
	notify(t, doc, trz)
	top = doc.FindByType(testTop)
	assert.Nil(t, top.Prop(testLink).(*Relation).Target(top))
	assert.Equal(t, "500#1[554:[0,999]]", doc.DebugString())
}

func TestLinkUpwards(t *testing.T) {
	doc := NewDocument(newTestEnv(t))
	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage)
	trz.CreateObject(testStorage1, &doc.Storage)
	notify(t, doc, trz)

	trz = NewTransaction()
	trz.CreateObject(testObject1, doc.FindStorage(2)).Set(NewRelation(testLink, 1, 1))
	notify(t, doc, trz)
	inner := doc.Find(LongName{2, 1})
	assert.Same(t, doc.FindByName(1), inner.Prop(testLink).(*Relation).Target(inner))
	assert.Equal(t, "500#1[]551#2[501#1[554:[1,1]]]", doc.DebugString())

	// Deleting the container deletes the children and their links.
	trz = NewTransaction()
	trz.ChangeObject(2).Delete()
	notify(t, doc, trz)
	assert.Empty(t, doc.FindByName(1).Referrers(0))
	assert.False(t, inner.IsActive())
}

func TestLinkedObjectReinit(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testTop, &doc.Storage).Set(NewInt(testInt1, 1))
	trz.CreateObject(testObject1, &doc.Storage).Set(NewRelation(testLink, 0, 1))
	trz.CreateObject(testObject2, &doc.Storage)
	notify(t, doc, trz)
	require.Equal(t, "500#1[551:1]501#2[554:[0,1]]502#3[]", doc.DebugString())
	obj1 := counterOf(t, doc.FindByName(1))
	obj2 := counterOf(t, doc.FindByName(2))
	obj3 := counterOf(t, doc.FindByName(3))
	require.Equal(t, 1, obj1.count)
	require.Equal(t, 1, obj2.count)
	require.Equal(t, 1, obj3.count)

	trz = NewTransaction()
	trz.ChangeObject(1).Set(NewInt(testInt1, 2))
	notify(t, doc, trz)
	assert.Equal(t, 2, obj1.count)
	assert.Equal(t, 2, obj2.count)
	assert.Equal(t, 1, obj3.count)

	trz = NewTransaction()
	trz.ChangeObject(1).Set(NewRelation(testLink, 0, 2))
	notify(t, doc, trz)
	assert.Equal(t, 3, obj1.count)
	assert.Equal(t, 3, obj2.count)
	assert.Equal(t, 1, obj3.count)

	trz = NewTransaction()
	trz.ChangeObject(1).Set(NewInt(testInt1, 3))
	notify(t, doc, trz)
	assert.Equal(t, 4, obj1.count)
	assert.Equal(t, 4, obj2.count)
	assert.Equal(t, 1, obj3.count)
}

func TestHandlerError(t *testing.T) {
	doc := NewDocument(newTestEnv(t))

	trz := NewTransaction()
	trz.CreateObject(testStorage2, &doc.Storage).Set(NewInt(testInt3, 1))
	assert.ErrorIs(t, doc.Notify(trz), errStorage2)
}
