// Package typespell spells a symtab.Type back out as a C type name, the
// Go analogue of the original TypeNameSpeller collaborator. Harness
// emission and DependentTypes both need a textual type independent of the
// declarator it came from.
package typespell

import (
	"strings"

	"github.com/maroar/psyche-harness/internal/symtab"
)

// SpellTypeName renders t's base spelling with its pointer stars, e.g.
// Type{Base:"int", PointerDeep:2} -> "int**".
func SpellTypeName(t symtab.Type) string {
	return t.Base + strings.Repeat("*", t.PointerDeep)
}

// SpellValueTypeName renders t as the value type the harness should
// declare a scalar variable with: pointer stars stripped, since "pointers
// become value-typed in harness scalars" (spec.md §4.4). Array dimensions
// are not reflected here; callers that need an array declarator build it
// separately from ArrayInfo.
func SpellValueTypeName(t symtab.Type) string {
	return t.Base
}
