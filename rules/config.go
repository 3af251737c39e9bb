package rules

import "fmt"

// DefaultDowngrade returns the rule names always applied when lowering
// source dialect to target dialect, in application order.
func DefaultDowngrade() []string {
	return []string{
		RemoveCompoundAssignmentName,
		RemoveContinueName,
		RemoveIfExpressionName,
		RemoveRedeclaredKeysName,
		ResolveRequirePathsName,
		NormalizeNumberLiteralsName,
		ConvertBit32Name,
	}
}

// Minify returns the additional rule names applied when minification is
// requested.
func Minify() []string {
	return []string{
		FoldConstantsName,
		RemoveEmptyDoName,
	}
}

// Config is an ordered rule-enablement table. Setting a name that is
// already present merges with logical AND: once a higher-priority source
// disables a rule, a later Set cannot re-enable it. This mirrors the
// historical default/override merge exactly — including the arguably
// surprising case where a user's explicit `rule = true` cannot revive a
// rule an earlier layer disabled.
type Config struct {
	names   []string
	enabled map[string]bool
}

// NewConfig returns a Config pre-populated with names, all enabled.
func NewConfig(names ...string) *Config {
	c := &Config{enabled: make(map[string]bool)}
	for _, name := range names {
		c.Set(name, true)
	}
	return c
}

// Set records an enablement decision for a rule, merging with AND when
// the rule was already configured. Order of first mention is preserved.
func (c *Config) Set(name string, on bool) {
	if cur, ok := c.enabled[name]; ok {
		c.enabled[name] = cur && on
		return
	}
	c.names = append(c.names, name)
	c.enabled[name] = on
}

// Enabled returns the enabled rule names in first-mention order.
func (c *Config) Enabled() []string {
	var out []string
	for _, name := range c.names {
		if c.enabled[name] {
			out = append(out, name)
		}
	}
	return out
}

// Pipeline is the resolved, ordered rule list for one run, partitioned
// the way the engine applies it: every tree rule first, then every
// visitor rule.
type Pipeline struct {
	Tree    []TreeRule
	Visitor []VisitorRule
}

// BuildPipeline resolves a configuration into constructed rules.
// Overrides are applied on top of the default downgrade set; minify
// appends the minification set afterwards. Unknown rule names are a
// configuration error that fails the whole run.
func BuildPipeline(overrides []Override, minify bool) (*Pipeline, error) {
	cfg := NewConfig(DefaultDowngrade()...)
	for _, o := range overrides {
		if _, ok := catalog[o.Name]; !ok {
			return nil, fmt.Errorf("unknown rule %q", o.Name)
		}
		cfg.Set(o.Name, o.Enabled)
	}
	if minify {
		for _, name := range Minify() {
			cfg.Set(name, true)
		}
	}

	p := &Pipeline{}
	for _, name := range cfg.Enabled() {
		rule, err := New(name)
		if err != nil {
			return nil, err
		}
		switch r := rule.(type) {
		case TreeRule:
			p.Tree = append(p.Tree, r)
		case VisitorRule:
			p.Visitor = append(p.Visitor, r)
		}
	}
	return p, nil
}

// Override is one user-supplied rule enablement decision.
type Override struct {
	Name    string
	Enabled bool
}
