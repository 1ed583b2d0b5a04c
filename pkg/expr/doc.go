// Package expr is the expression sandbox used by labeler configurations.
// It evaluates CEL (Common Expression Language) expressions against the
// match results of selectors, renders brace-delimited templates, and
// executes restricted "definitions" blocks that introduce named helper
// values under an import allow-list.
//
// The grammar is deliberately minimal: literals, names, operators,
// attribute access, subscripting, calls, and comprehension macros. There is
// no assignment, no imports, and no way to reach execution or introspection
// primitives; anything outside the compiled environment fails before
// evaluation starts.
package expr
