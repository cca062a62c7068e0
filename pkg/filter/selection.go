package filter

// Selection tracks the single selected node. The zero value selects nothing.
type Selection struct {
	id       string
	onChange []func(id string)
}

// OnChange registers fn to run after every transition, with "" meaning the
// selection was cleared.
func (s *Selection) OnChange(fn func(id string)) {
	s.onChange = append(s.onChange, fn)
}

// Select moves to the selected(id) state. An empty id clears.
func (s *Selection) Select(id string) {
	s.id = id
	for _, fn := range s.onChange {
		fn(id)
	}
}

// Clear moves to the none state.
func (s *Selection) Clear() {
	s.Select("")
}

// Selected returns the selected id, if any.
func (s *Selection) Selected() (string, bool) {
	return s.id, s.id != ""
}
