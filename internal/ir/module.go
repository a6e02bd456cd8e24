package ir

import "fmt"

// Module is an ordered collection of functions with unique names.
type Module struct {
	funcs  []*Function
	byName map[string]*Function
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{byName: make(map[string]*Function)}
}

// Add appends a function. Duplicate names are rejected.
func (m *Module) Add(f *Function) error {
	if _, ok := m.byName[f.Name]; ok {
		return fmt.Errorf("function %q already defined", f.Name)
	}
	m.funcs = append(m.funcs, f)
	m.byName[f.Name] = f
	return nil
}

// Function looks up a function by name.
func (m *Module) Function(name string) (*Function, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Functions returns the module's functions in definition order.
func (m *Module) Functions() []*Function {
	out := make([]*Function, len(m.funcs))
	copy(out, m.funcs)
	return out
}
