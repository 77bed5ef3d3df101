package core

import (
	"errors"
	"fmt"

	"github.com/safval/DistributedDocumentStorage/codec"
	"github.com/safval/DistributedDocumentStorage/types"
)

// Error is a numbered document store error.
//
// Two errors are equal for errors.Is when their codes match.
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("error %d: %s", e.Code, e.Msg)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrRelationTooDeep        = &Error{2, "relation ascends too many storages"}
	ErrNoUndoRedoData         = &Error{225, "no undo/redo data"}
	ErrSelfInsertedDocument   = &Error{228, "document inserted into itself"}
	ErrSerializationFormat    = &Error{229, "serialization format error"}
	ErrSerializationInternal  = &Error{230, "serialization internal error"}
	ErrSerializationFileOpen  = &Error{231, "cannot open serialization file"}
	ErrDuplicatedObjectName   = &Error{993, "duplicated object type name"}
	ErrDuplicatedObjectID     = &Error{994, "duplicated object type id"}
	ErrUnknownObjType         = &Error{995, "unknown object type"}
	ErrUnknownPropType        = &Error{996, "unknown property type"}
	ErrWrongPropertyID        = &Error{997, "wrong property id"}
	ErrDuplicatedPropertyName = &Error{998, "duplicated property type name"}
	ErrDuplicatedPropertyID   = &Error{999, "duplicated property type id"}
	ErrNotImplemented         = &Error{1000, "not implemented"}
	ErrReadOnlyProperty       = &Error{1238, "property is read only"}
	ErrNameInUse              = &Error{1250, "object name is in use"}
	ErrTopObjectName          = &Error{1253, "top object must have name 1"}
	ErrMergeCreate            = &Error{1254, "cannot merge object creation"}
	ErrUnknownVariant         = &Error{1255, "unknown document variant"}
	ErrVariantFromSource      = &Error{1256, "variant state changed inside a variant"}
	ErrNotDeletable           = &Error{1257, "property cannot be deleted"}
	ErrAlreadyConnected       = &Error{1262, "endpoint is connected to another hub"}
	ErrNotConnected           = &Error{1263, "endpoint is not connected"}
	ErrMissingBackReference   = &Error{1265, "missing back reference"}
	ErrCascadeFailed          = &Error{1267, "cascade delete failed"}
	ErrInvalidCreateType      = &Error{1277, "invalid object type to create"}
)

func errorf(base *Error, format string, args ...any) error {
	return &Error{Code: base.Code, Msg: base.Msg + ": " + fmt.Sprintf(format, args...)}
}

// formatError wraps codec errors as serialization format errors.
func formatError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSerializationFormat, err)
}

// Code returns the numeric code carried by err or 0 when there is none.
func Code(err error) int {
	var e *Error
	switch {
	case err == nil:
		return 0
	case errors.As(err, &e):
		return e.Code
	case errors.Is(err, codec.ErrFormat):
		return ErrSerializationFormat.Code
	case errors.Is(err, types.ErrUnknownType):
		return ErrUnknownObjType.Code
	case errors.Is(err, types.ErrDuplicatedName):
		return ErrDuplicatedObjectName.Code
	case errors.Is(err, types.ErrDuplicatedID):
		return ErrDuplicatedObjectID.Code
	default:
		return 0
	}
}
