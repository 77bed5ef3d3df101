package core

// Variant is a named branch of history that can be switched off.
//
// Transactions whose source equals Name are live unless State is VariantDisabled.
type Variant struct {
	Name  LongName
	State VariantState
}

// updateVariants applies the variant changes of t to the variant table.
//
// It returns true when a variant crossed the disabled boundary.
func (h *Hub) updateVariants(t *Transaction) (bool, error) {
	for _, c := range t.changes {
		if c.typ != TypeDeleted {
			continue
		}
		for _, v := range h.variants {
			if v.Name.Equal(c.name) {
				v.State = VariantDisabled
				return true, nil
			}
		}
	}
	flip := false
	for _, c := range t.changes {
		for _, p := range c.props {
			if p.Type() != DocVariantProp {
				continue
			}
			if len(t.source) > 0 {
				return false, errorf(ErrVariantFromSource, "%v in %v", c.name, t.source)
			}
			value, ok := p.(*Int)
			if !ok {
				continue
			}
			state := VariantState(value.Value)
			found := false
			for _, v := range h.variants {
				if !v.Name.Equal(c.name) {
					continue
				}
				if (v.State == VariantDisabled) != (state == VariantDisabled) {
					flip = true
				}
				v.State = state
				found = true
			}
			if !found {
				h.variants = append(h.variants, &Variant{Name: c.name.Clone(), State: state})
			}
		}
	}
	return flip, nil
}

// updateAllVariants rebuilds the variant table from the log up to the cursor.
func (h *Hub) updateAllVariants() error {
	for _, t := range h.log {
		t.enabler = nil
	}
	h.variants = nil
	for _, t := range h.log {
		if t.created > h.current {
			continue
		}
		if len(t.source) == 0 {
			if _, err := h.updateVariants(t); err != nil {
				return err
			}
		}
		enabler, err := h.enabler(t)
		if err != nil {
			return err
		}
		t.enabler = enabler
	}
	return nil
}

// enabler returns the variant controlling t or nil for main line history.
func (h *Hub) enabler(t *Transaction) (*Variant, error) {
	if len(t.source) == 0 {
		return nil, nil
	}
	for _, v := range h.variants {
		if v.Name.Equal(t.source) {
			return v, nil
		}
	}
	return nil, errorf(ErrUnknownVariant, "%v", t.source)
}
