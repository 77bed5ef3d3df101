package core

import (
	"strconv"
	"strings"
)

// DebugString returns a compact dump of the active objects.
//
// Every object is written as type#name[props,children] and every property
// as type:value with the value in JSON.
//
// This function is primarily used for testing.
func (s *Storage) DebugString() string {
	var b strings.Builder
	s.debugString(&b)
	return b.String()
}

func (s *Storage) debugString(b *strings.Builder) {
	for _, o := range s.objects {
		if !o.IsActive() {
			continue
		}
		b.WriteString(strconv.Itoa(int(o.Type())))
		b.WriteByte('#')
		b.WriteString(strconv.FormatUint(uint64(o.name), 10))
		b.WriteByte('[')
		props := o.debugProps()
		b.WriteString(props)
		if o.children != nil {
			children := o.children.DebugString()
			if props != "" && children != "" {
				b.WriteByte(',')
			}
			b.WriteString(children)
		}
		b.WriteByte(']')
	}
}

func (o *Object) debugProps() string {
	parts := make([]string, len(o.props))
	for i, p := range o.props {
		parts[i] = strconv.Itoa(int(p.Type())) + ":" + PropertyString(p)
	}
	return strings.Join(parts, ",")
}
