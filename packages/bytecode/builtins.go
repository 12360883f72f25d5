package bytecode

// Builtin indices. LOADVAR(-1, i) loads builtin i.
const (
	BuiltinAdd = iota
	BuiltinSub
	BuiltinMul
	BuiltinDiv
	BuiltinMod
	BuiltinEq
	BuiltinLt
	BuiltinGt
	BuiltinLte
	BuiltinGte
	BuiltinNot
	BuiltinAnd
	BuiltinOr
	BuiltinList
	BuiltinTuple
	BuiltinCons
	BuiltinHead
	BuiltinTail
	BuiltinEmpty
	BuiltinLen
	BuiltinNth
)

var builtinNames = [...]string{
	BuiltinAdd:   "+",
	BuiltinSub:   "-",
	BuiltinMul:   "*",
	BuiltinDiv:   "/",
	BuiltinMod:   "%",
	BuiltinEq:    "eq",
	BuiltinLt:    "lt",
	BuiltinGt:    "gt",
	BuiltinLte:   "lte",
	BuiltinGte:   "gte",
	BuiltinNot:   "not",
	BuiltinAnd:   "and",
	BuiltinOr:    "or",
	BuiltinList:  "list",
	BuiltinTuple: "tuple",
	BuiltinCons:  "cons",
	BuiltinHead:  "head",
	BuiltinTail:  "tail",
	BuiltinEmpty: "empty",
	BuiltinLen:   "len",
	BuiltinNth:   "nth",
}

var builtinIndex = func() map[string]int {
	m := make(map[string]int, len(builtinNames))
	for i, name := range builtinNames {
		m[name] = i
	}
	return m
}()

// BuiltinCount is the size of the builtin table.
const BuiltinCount = len(builtinNames)

// BuiltinName returns the name of builtin idx.
func BuiltinName(idx int) (string, bool) {
	if idx < 0 || idx >= len(builtinNames) {
		return "", false
	}
	return builtinNames[idx], true
}

// LookupBuiltin returns the index of a builtin by name.
func LookupBuiltin(name string) (int, bool) {
	idx, ok := builtinIndex[name]
	return idx, ok
}

// BuiltinTable resolves builtin names for the scope annotator.
type BuiltinTable struct{}

func (BuiltinTable) ResolveBuiltin(name string) (int, bool) { return LookupBuiltin(name) }

func (BuiltinTable) BuiltinNames() []string {
	names := make([]string, len(builtinNames))
	copy(names, builtinNames[:])
	return names
}
