package rules

import (
	"fmt"
	"sort"
)

// catalog maps rule names to constructors. Every rule is constructed
// fresh per pipeline so instances can be handed to concurrent workers.
var catalog = map[string]func() Rule{
	RemoveCompoundAssignmentName: func() Rule { return &RemoveCompoundAssignment{} },
	RemoveContinueName:           func() Rule { return &RemoveContinue{} },
	RemoveIfExpressionName:       func() Rule { return &RemoveIfExpression{} },
	NormalizeNumberLiteralsName:  func() Rule { return &NormalizeNumberLiterals{} },
	RemoveRedeclaredKeysName:     func() Rule { return &RemoveRedeclaredKeys{} },
	ResolveRequirePathsName:      func() Rule { return &ResolveRequirePaths{} },
	ConvertBit32Name:             func() Rule { return &ConvertBit32{} },
	FoldConstantsName:            func() Rule { return &FoldConstants{} },
	RemoveEmptyDoName:            func() Rule { return &RemoveEmptyDo{} },
}

// New constructs the rule registered under name.
func New(name string) (Rule, error) {
	ctor, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown rule %q", name)
	}
	return ctor(), nil
}

// Names returns all registered rule names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
