package msl

import "fmt"

// reservedWords are identifiers a program may use that Metal or its C++
// base reserves. Escaped names get a trailing underscore.
var reservedWords = map[string]struct{}{
	// C++
	"alignas":      {}, "alignof": {}, "and": {}, "asm": {}, "auto": {}, "bitand": {},
	"bitor":        {}, "break": {}, "case": {}, "catch": {}, "char": {}, "class": {},
	"compl":        {}, "const": {}, "constexpr": {}, "const_cast": {}, "continue": {},
	"decltype":     {}, "default": {}, "delete": {}, "do": {}, "double": {},
	"dynamic_cast": {}, "else": {}, "enum": {}, "explicit": {}, "export": {},
	"extern":       {}, "false": {}, "float": {}, "for": {}, "friend": {}, "goto": {},
	"if":           {}, "inline": {}, "int": {}, "long": {}, "main": {}, "mutable": {},
	"namespace":    {}, "new": {}, "noexcept": {}, "not": {}, "nullptr": {},
	"operator":     {}, "or": {}, "private": {}, "protected": {}, "public": {},
	"register":     {}, "reinterpret_cast": {}, "return": {}, "short": {},
	"signed":       {}, "sizeof": {}, "static": {}, "static_assert": {},
	"static_cast":  {}, "struct": {}, "switch": {}, "template": {}, "this": {},
	"thread_local": {}, "throw": {}, "true": {}, "try": {}, "typedef": {},
	"typeid":       {}, "typename": {}, "union": {}, "unsigned": {}, "using": {},
	"virtual":      {}, "void": {}, "volatile": {}, "wchar_t": {}, "while": {},
	"xor":          {},

	// Metal address spaces, attributes and stage keywords
	"constant":               {}, "device": {}, "thread": {}, "threadgroup": {},
	"threadgroup_imageblock": {}, "ray_data": {}, "object_data": {},
	"vertex":                 {}, "fragment": {}, "kernel": {}, "stage_in": {},
	"metal":                  {}, "half": {}, "uint": {}, "ushort": {}, "uchar": {}, "bool": {},
	"sampler":                {}, "texture2d": {}, "array": {}, "packed_float3": {},
	"discard_fragment":       {}, "as_type": {}, "select": {},

	// Standard library names a program could shadow
	"abs":  {}, "all": {}, "any": {}, "atan2": {}, "clamp": {}, "dfdx": {},
	"dfdy": {}, "fmod": {}, "fract": {}, "mix": {}, "rsqrt": {}, "saturate": {},

	// Names the generator itself introduces
	"Uniforms":     {}, "Inputs": {}, "Outputs": {}, "Globals": {},
	"fragmentMain": {}, "vertexMain": {},
}

// isReserved reports names that cannot be emitted unchanged.
func isReserved(name string) bool {
	_, ok := reservedWords[name]
	return ok
}

// escapeName returns a legal Metal identifier for name. Identifiers that
// start with an underscore followed by a capital or a second underscore
// are reserved to the implementation in C++, so they are prefixed too.
func escapeName(name string) string {
	switch {
	case name == "":
		return "_unnamed"
	case isReserved(name):
		return name + "_"
	case len(name) > 1 && name[0] == '_' && (name[1] == '_' || name[1] >= 'A' && name[1] <= 'Z'):
		return "x" + name
	}
	return name
}

// namer hands out identifiers unique within one output file.
type namer struct {
	used    map[string]struct{}
	counter int
}

func newNamer() *namer {
	return &namer{used: make(map[string]struct{})}
}

// reserve marks name as taken without escaping it.
func (n *namer) reserve(name string) {
	n.used[name] = struct{}{}
}

// call returns base, escaped and suffixed until it is unused.
func (n *namer) call(base string) string {
	escaped := escapeName(base)
	if _, used := n.used[escaped]; !used {
		n.used[escaped] = struct{}{}
		return escaped
	}
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", escaped, n.counter)
		if _, used := n.used[candidate]; !used {
			n.used[candidate] = struct{}{}
			return candidate
		}
	}
}
