package core

import (
	"errors"
	"fmt"

	"github.com/safval/DistributedDocumentStorage/codec"
	"github.com/safval/DistributedDocumentStorage/schema"
	"github.com/safval/DistributedDocumentStorage/types"
)

// ObjType identifies an object class.
type ObjType int32

// PropType identifies a property class.
type PropType int32

// Name is an object name unique within one storage.
type Name uint32

// Time is a unix time in milliseconds.
type Time int64

const (
	// TypeUnchanged marks changes that neither create nor delete an object.
	TypeUnchanged ObjType = -3
	// TypeDeleted marks changes that delete an object.
	TypeDeleted ObjType = -4
)

// Object type flags.
const (
	// TopObject types may only live at name 1.
	TopObject types.Flags = 1
	// StorageObject types contain child objects.
	StorageObject types.Flags = 0x100
	// DocumentObject types are embeddable document roots.
	DocumentObject types.Flags = 0x200
)

// Property type flags.
const (
	Searchable types.Flags = 1
	ReadOnly   types.Flags = 2
	NoDelete   types.Flags = 4
)

// Standard property types.
const (
	DocIDProp      PropType = 1
	UserIDProp     PropType = 2
	DocVariantProp PropType = 155
)

// Standard object types.
const (
	DocumentType    ObjType = 1
	InvitedUserType ObjType = 2
	InsertType      ObjType = 101
	UserType        ObjType = 240
	DocumentsType   ObjType = 241
)

// ObjectFactory returns the change handler of a new object.
type ObjectFactory func() Handler

// PropertyFactory reads a property value of the given type.
type PropertyFactory func(pt PropType, r codec.Reader) (Property, error)

type (
	ObjectDef   = types.Definition[ObjectFactory]
	PropertyDef = types.Definition[PropertyFactory]
)

// Types holds the object and property definitions of a process.
//
// Types is populated before any document is opened and is read-only
// afterwards.
type Types struct {
	objects *types.Registry[ObjectFactory]
	props   *types.Registry[PropertyFactory]
	kinds   map[PropType]string
}

// NewTypes returns an empty set of definitions.
func NewTypes() *Types {
	return &Types{
		objects: types.NewRegistry[ObjectFactory](),
		props:   types.NewRegistry[PropertyFactory](),
		kinds:   make(map[PropType]string),
	}
}

// AddObject registers an object type.
func (t *Types) AddObject(id ObjType, flags types.Flags, name string, factory ObjectFactory) error {
	if flags&DocumentObject != 0 {
		flags |= StorageObject
	}
	_, err := t.objects.Register(int32(id), flags, name, factory)
	return registryError(err, ErrDuplicatedObjectName, ErrDuplicatedObjectID)
}

// AddProperty registers a property type.
func (t *Types) AddProperty(id PropType, flags types.Flags, name string, factory PropertyFactory) error {
	_, err := t.props.Register(int32(id), flags, name, factory)
	return registryError(err, ErrDuplicatedPropertyName, ErrDuplicatedPropertyID)
}

// Object returns the definition of an object type.
func (t *Types) Object(id ObjType) (*ObjectDef, error) {
	def, err := t.objects.Lookup(int32(id))
	if err != nil {
		return nil, errorf(ErrUnknownObjType, "%d", id)
	}
	return def, nil
}

// Property returns the definition of a property type.
func (t *Types) Property(id PropType) (*PropertyDef, error) {
	def, err := t.props.Lookup(int32(id))
	if err != nil {
		return nil, errorf(ErrUnknownPropType, "%d", id)
	}
	return def, nil
}

// Objects returns all object definitions ordered by id.
func (t *Types) Objects() []*ObjectDef {
	return t.objects.All()
}

// Properties returns all property definitions ordered by id.
func (t *Types) Properties() []*PropertyDef {
	return t.props.All()
}

// LoadSchema registers the types declared in SDL.
//
// Object handlers are looked up by type name and may be missing.
func (t *Types) LoadSchema(sdl string, handlers map[string]ObjectFactory) error {
	s, err := types.ParseSchema(sdl)
	if err != nil {
		return err
	}
	for _, p := range s.Properties {
		var flags types.Flags
		if p.Searchable {
			flags |= Searchable
		}
		if p.ReadOnly {
			flags |= ReadOnly
		}
		if p.NoDelete {
			flags |= NoDelete
		}
		if err := t.AddProperty(PropType(p.ID), flags, p.Name, factoryOf(p.Kind)); err != nil {
			return err
		}
		t.kinds[PropType(p.ID)] = p.Kind
	}
	for _, o := range s.Objects {
		var flags types.Flags
		if o.Top {
			flags |= TopObject
		}
		if o.Storage {
			flags |= StorageObject
		}
		if o.Document {
			flags |= DocumentObject
		}
		if err := t.AddObject(ObjType(o.ID), flags, o.Name, handlers[o.Name]); err != nil {
			return err
		}
	}
	return nil
}

// AddStandardTypes registers the types every document store needs.
func (t *Types) AddStandardTypes() error {
	return t.LoadSchema(schema.Standard, nil)
}

// SDL renders the registered types in the form accepted by LoadSchema.
func (t *Types) SDL() (string, error) {
	var objects []schema.Object
	for _, def := range t.objects.All() {
		objects = append(objects, schema.Object{
			ID:       def.ID,
			Name:     def.Name,
			Top:      def.Has(TopObject),
			Storage:  def.Has(StorageObject) && !def.Has(DocumentObject),
			Document: def.Has(DocumentObject),
		})
	}
	var props []schema.Property
	for _, def := range t.props.All() {
		props = append(props, schema.Property{
			ID:         def.ID,
			Name:       def.Name,
			Kind:       t.kind(PropType(def.ID)),
			ReadOnly:   def.Has(ReadOnly),
			NoDelete:   def.Has(NoDelete),
			Searchable: def.Has(Searchable),
		})
	}
	return schema.Generate(objects, props)
}

// kind returns the schema kind of a property type. Types added without a
// schema are rendered as integers.
func (t *Types) kind(pt PropType) string {
	if k, ok := t.kinds[pt]; ok {
		return k
	}
	return types.KindInt
}

func factoryOf(kind string) PropertyFactory {
	switch kind {
	case types.KindReal:
		return ReadReal
	case types.KindString:
		return ReadString
	case types.KindRelation:
		return ReadRelation
	default:
		return ReadInt
	}
}

func registryError(err error, dupName, dupID *Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, types.ErrDuplicatedName):
		return errorf(dupName, "%v", err)
	case errors.Is(err, types.ErrDuplicatedID):
		return errorf(dupID, "%v", err)
	default:
		return fmt.Errorf("register type: %w", err)
	}
}

// DocID identifies a document.
type DocID uint64

// UserID identifies a user.
type UserID uint32

const (
	DefaultLocalUserID UserID = 1
	MainUserID         UserID = 101
	StorageInfoDocID   DocID  = 1

	SerializationFormatVersion = 1
)

// MakeDocID returns the id of a document created by user at the given time.
func MakeDocID(user UserID, created Time) DocID {
	return DocID(uint64(user)<<32 | uint64(uint32(created/1000)))
}

// User returns the id of the user who created the document.
func (id DocID) User() UserID {
	return UserID(id >> 32)
}

// VariantState is the enablement of a document variant.
type VariantState int

const (
	VariantDisabled VariantState = iota
	VariantEnabled
	VariantActive
)

func (s VariantState) String() string {
	switch s {
	case VariantDisabled:
		return "disabled"
	case VariantEnabled:
		return "enabled"
	case VariantActive:
		return "active"
	default:
		return fmt.Sprintf("variant(%d)", int(s))
	}
}
