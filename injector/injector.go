package injector

import "strings"

// Injector prepends polyfill bindings to a compiled file: one
// local-from-require line per used export, then one nil binding per
// removal entry. The prologue is spliced into the start of the first
// line rather than added as new lines, so every original line keeps its
// number in stack traces.
type Injector struct {
	// ModulePath is the dotted require path of the compiled polyfill
	// module, as the consuming file must require it.
	ModulePath string
	// Removes lists names to unbind unconditionally.
	Removes []string
}

// Prologue renders the binding text for the given used exports. Empty
// when there is nothing to bind or remove.
func (inj *Injector) Prologue(used []string) string {
	if len(used) == 0 && len(inj.Removes) == 0 {
		return ""
	}
	var b strings.Builder
	for _, name := range used {
		b.WriteString("local ")
		b.WriteString(name)
		b.WriteString("=require'")
		b.WriteString(inj.ModulePath)
		b.WriteString("'.")
		b.WriteString(name)
		b.WriteString(" ")
	}
	for _, name := range inj.Removes {
		b.WriteString("local ")
		b.WriteString(name)
		b.WriteString("=nil ")
	}
	return b.String()
}

// Inject returns source with the prologue for used spliced in front of
// its first line.
func (inj *Injector) Inject(source string, used []string) string {
	prologue := inj.Prologue(used)
	if prologue == "" {
		return source
	}
	return prologue + source
}
