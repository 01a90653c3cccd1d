package anno

import "sort"

// ArgPropRecord groups an address with all of its operand properties,
// ready for persistence.
type ArgPropRecord struct {
	Addr  uint32
	Props map[int]map[string]any
}

// ArgPropTable maps an address and operand index to a set of named
// display properties. The canonical recognized property is "type",
// whose value is one of the proc.OperandType constants rendered as a
// string; values are otherwise opaque JSON scalars.
type ArgPropTable struct {
	m map[uint32]map[int]map[string]any
}

// NewArgPropTable creates an empty operand property table.
func NewArgPropTable() *ArgPropTable {
	return &ArgPropTable{m: make(map[uint32]map[int]map[string]any)}
}

// Set stores value under name for operand argno at addr.
func (t *ArgPropTable) Set(addr uint32, argno int, name string, value any) {
	args, ok := t.m[addr]
	if !ok {
		args = make(map[int]map[string]any)
		t.m[addr] = args
	}
	props, ok := args[argno]
	if !ok {
		props = make(map[string]any)
		args[argno] = props
	}
	props[name] = value
}

// Get returns the named property for operand argno at addr, or nil if
// it is unset.
func (t *ArgPropTable) Get(addr uint32, argno int, name string) any {
	if args, ok := t.m[addr]; ok {
		if props, ok := args[argno]; ok {
			return props[name]
		}
	}
	return nil
}

// All returns every address's operand properties, sorted by address,
// ready for persistence.
func (t *ArgPropTable) All() []ArgPropRecord {
	out := make([]ArgPropRecord, 0, len(t.m))
	for addr, args := range t.m {
		out = append(out, ArgPropRecord{Addr: addr, Props: args})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}
