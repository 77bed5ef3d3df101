package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ipld/go-ipld-prime/datamodel"
)

// LongName is the path of names from a document root to an object.
type LongName []Name

// Equal returns true if both names have the same segments.
func (n LongName) Equal(other LongName) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if n[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the name.
func (n LongName) Clone() LongName {
	if n == nil {
		return nil
	}
	return append(LongName(nil), n...)
}

// Less orders names by segments, shorter names first on a common prefix.
func (n LongName) Less(other LongName) bool {
	for i := 0; i < len(n) && i < len(other); i++ {
		if n[i] != other[i] {
			return n[i] < other[i]
		}
	}
	return len(n) < len(other)
}

// Path returns the name as a data model path.
func (n LongName) Path() datamodel.Path {
	segments := make([]datamodel.PathSegment, len(n))
	for i, v := range n {
		segments[i] = datamodel.PathSegmentOfInt(int64(v))
	}
	return datamodel.NewPath(segments)
}

// String returns the names joined by slashes.
func (n LongName) String() string {
	return n.Path().String()
}

// ParseLongName parses a slash separated list of names.
func ParseLongName(s string) (LongName, error) {
	path := datamodel.ParsePath(strings.Trim(s, "/"))
	var name LongName
	for _, seg := range path.Segments() {
		v, err := strconv.ParseUint(seg.String(), 10, 32)
		if err != nil || v == 0 {
			return nil, fmt.Errorf("invalid object name %q", s)
		}
		name = append(name, Name(v))
	}
	return name, nil
}
