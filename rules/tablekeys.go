package rules

import (
	"sort"
	"strconv"

	"github.com/moonfall-dev/moonfall/ast"
)

// RemoveRedeclaredKeysName identifies the duplicate table key rule.
const RemoveRedeclaredKeysName = "remove_redeclared_keys"

// RemoveRedeclaredKeys rewrites table constructors that assign the same
// key more than once. Luau accepts redeclared keys (the last one wins);
// some target runtimes reject them at load time.
//
// In the common case the constructor is rebuilt with each key appearing
// once, holding its final value. When a duplicate's occurrences straddle
// an entry whose value may have side effects, dropping the earlier
// occurrence would reorder those effects, so instead the constructor is
// wrapped in an immediately invoked function: the literal keeps the
// leading entries and the trailing redeclarations become plain indexed
// assignments on a temporary.
type RemoveRedeclaredKeys struct{}

func (RemoveRedeclaredKeys) RuleName() string { return RemoveRedeclaredKeysName }

func (RemoveRedeclaredKeys) Apply(block *ast.Block, ctx *Context) error {
	m := &tableKeyMutator{
		tmpName: func() string { return synthesizeIdent("tbl", block) },
	}
	ast.MutateBlock(block, m)
	return nil
}

type tableKeyMutator struct {
	ast.NopMutator
	tmpName func() string
	tmp     string
	// rebuilt literals are re-visited by the descending traversal; skip
	// them so a wrapped table is not wrapped again.
	skip map[*ast.TableExpr]bool
}

func (m *tableKeyMutator) MutateExpr(e ast.Expr) ast.Expr {
	table, ok := e.(*ast.TableExpr)
	if !ok || m.skip[table] {
		return e
	}
	return m.rewrite(table)
}

// tableKey is a concrete constructor key: a positive integer index or a
// string (which may be empty, so the kind is explicit).
type tableKey struct {
	isStr bool
	num   int
	str   string
}

func numKey(n int) tableKey { return tableKey{num: n} }
func strKey(s string) tableKey { return tableKey{isStr: true, str: s} }

// concreteKey extracts the statically known key of an entry. pos is the
// running positional index, advanced for array entries.
func concreteKey(entry ast.TableEntry, pos *int) (tableKey, bool) {
	switch en := entry.(type) {
	case *ast.ArrayEntry:
		*pos++
		return numKey(*pos), true
	case *ast.FieldEntry:
		return strKey(en.Name), true
	case *ast.IndexEntry:
		v := Eval(en.Key)
		if n, ok := v.IsInteger(); ok {
			return numKey(n), true
		}
		if v.Kind == StringValue {
			return strKey(v.Str), true
		}
	}
	return tableKey{}, false
}

func entryValue(entry ast.TableEntry) ast.Expr {
	switch en := entry.(type) {
	case *ast.ArrayEntry:
		return en.Value
	case *ast.FieldEntry:
		return en.Value
	case *ast.IndexEntry:
		return en.Value
	}
	return nil
}

// isPureExpr reports whether evaluating e can have no observable side
// effect: literals, bare names, function literals, and parenthesized
// pure expressions. Everything else is treated as potentially effectful.
func isPureExpr(e ast.Expr) bool {
	switch ex := e.(type) {
	case *ast.NilExpr, *ast.BoolExpr, *ast.NumberExpr, *ast.StringExpr,
		*ast.IdentExpr, *ast.VarargExpr, *ast.FunctionExpr:
		return true
	case *ast.ParenExpr:
		return isPureExpr(ex.Inner)
	}
	return false
}

// rewrite returns the table unchanged when every concrete key is unique
// and every entry key is statically known; otherwise it returns a rebuilt
// constructor, wrapped in an IIFE when redeclarations must be hoisted.
func (m *tableKeyMutator) rewrite(table *ast.TableExpr) ast.Expr {
	entries := table.Entries

	// First pass: find where hoisting must begin. A duplicate key whose
	// occurrences straddle an effectful value (including the earlier
	// occurrence's own value) cannot be deduplicated in place, and a key
	// that is not statically known forces everything after it out of the
	// literal too.
	seen := make(map[tableKey]int)
	hoistFrom := -1
	lastImpure := -1
	pos := 0
	duplicates := false
	for i, entry := range entries {
		key, known := concreteKey(entry, &pos)
		if !known {
			hoistFrom = i
			break
		}
		if j, dup := seen[key]; dup {
			duplicates = true
			if lastImpure >= j {
				hoistFrom = i
				break
			}
		}
		seen[key] = i
		if !isPureExpr(entryValue(entry)) {
			lastImpure = i
		}
	}

	if !duplicates && hoistFrom < 0 {
		return table
	}

	// Second pass: collect final values for the in-literal prefix, then
	// turn everything from hoistFrom on into assignments.
	numeral := make(map[int]ast.Expr)
	strs := make(map[string]ast.Expr)
	strOrder := make(map[string]int)
	var hoisted []hoistedEntry
	pos = 0
	for i, entry := range entries {
		if hoistFrom >= 0 && i >= hoistFrom {
			key, known := concreteKey(entry, &pos)
			if known {
				hoisted = append(hoisted, hoistedEntry{key: key, value: entryValue(entry)})
			} else {
				en := entry.(*ast.IndexEntry)
				hoisted = append(hoisted, hoistedEntry{keyExpr: en.Key, value: en.Value})
			}
			continue
		}
		key, _ := concreteKey(entry, &pos)
		if key.isStr {
			strs[key.str] = entryValue(entry)
			strOrder[key.str] = i
		} else {
			numeral[key.num] = entryValue(entry)
		}
	}

	rebuilt := buildTable(numeral, strs, strOrder)
	if len(hoisted) == 0 {
		m.markSkip(rebuilt)
		return rebuilt
	}

	if m.tmp == "" {
		m.tmp = m.tmpName()
	}
	m.markSkip(rebuilt)
	stmts := []ast.Stmt{&ast.LocalStmt{
		Names:  []string{m.tmp},
		Values: []ast.Expr{rebuilt},
	}}
	for _, h := range hoisted {
		stmts = append(stmts, h.assign(m.tmp))
	}
	return ast.IIFEValue(stmts, &ast.IdentExpr{Name: m.tmp})
}

func (m *tableKeyMutator) markSkip(t *ast.TableExpr) {
	if m.skip == nil {
		m.skip = make(map[*ast.TableExpr]bool)
	}
	m.skip[t] = true
}

type hoistedEntry struct {
	key     tableKey
	keyExpr ast.Expr // set when the key is not statically known
	value   ast.Expr
}

func (h hoistedEntry) assign(tmp string) ast.Stmt {
	var target ast.Expr
	switch {
	case h.keyExpr != nil:
		target = &ast.IndexExpr{Object: &ast.IdentExpr{Name: tmp}, Key: h.keyExpr}
	case h.key.isStr:
		if isLuaIdent(h.key.str) {
			target = &ast.DotExpr{Object: &ast.IdentExpr{Name: tmp}, Field: h.key.str}
		} else {
			target = &ast.IndexExpr{Object: &ast.IdentExpr{Name: tmp}, Key: &ast.StringExpr{Value: h.key.str}}
		}
	default:
		target = &ast.IndexExpr{
			Object: &ast.IdentExpr{Name: tmp},
			Key:    &ast.NumberExpr{Raw: strconv.Itoa(h.key.num)},
		}
	}
	return &ast.AssignStmt{Targets: []ast.Expr{target}, Values: []ast.Expr{h.value}}
}

// buildTable reconstructs a constructor from the collected key maps.
// Numeric keys come first in ascending order, collapsing a contiguous run
// from 1 into positional entries; string keys follow in source order.
func buildTable(numeral map[int]ast.Expr, strs map[string]ast.Expr, strOrder map[string]int) *ast.TableExpr {
	nums := make([]int, 0, len(numeral))
	for k := range numeral {
		nums = append(nums, k)
	}
	sort.Ints(nums)

	out := &ast.TableExpr{}
	next := 1
	for _, k := range nums {
		if k == next {
			out.Entries = append(out.Entries, &ast.ArrayEntry{Value: numeral[k]})
			next++
			continue
		}
		out.Entries = append(out.Entries, &ast.IndexEntry{
			Key:   &ast.NumberExpr{Raw: strconv.Itoa(k)},
			Value: numeral[k],
		})
	}

	keys := make([]string, 0, len(strs))
	for k := range strs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return strOrder[keys[i]] < strOrder[keys[j]] })
	for _, k := range keys {
		if isLuaIdent(k) {
			out.Entries = append(out.Entries, &ast.FieldEntry{Name: k, Value: strs[k]})
		} else {
			out.Entries = append(out.Entries, &ast.IndexEntry{
				Key:   &ast.StringExpr{Value: k},
				Value: strs[k],
			})
		}
	}
	return out
}

var luaReserved = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "nil": true, "not": true,
	"or": true, "repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

func isLuaIdent(s string) bool {
	if s == "" || luaReserved[s] {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
