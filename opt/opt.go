// Package opt provides transform passes over the IR: loop-invariant
// code motion guided by scalar evolution, aggressive dead code
// elimination, and replacement of constant-index access chains with
// composite operations.
package opt

import (
	"fmt"

	"github.com/scevlab/affine/ir"
)

// Pass is a module transform. Run reports whether the module changed.
type Pass interface {
	Name() string
	Run(m *ir.Module) (bool, error)
}

// passes lists every registered pass in default pipeline order.
var passes = []Pass{
	&LICM{},
	&AccessChainConvert{},
	&ADCE{},
}

// All returns the default pipeline.
func All() []Pass {
	out := make([]Pass, len(passes))
	copy(out, passes)
	return out
}

// Lookup returns the registered pass with the given name.
func Lookup(name string) (Pass, error) {
	for _, p := range passes {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown pass %q", name)
}

// Run applies each pass once in order and reports whether any changed
// the module.
func Run(m *ir.Module, ps ...Pass) (bool, error) {
	changed := false
	for _, p := range ps {
		c, err := p.Run(m)
		if err != nil {
			return changed, fmt.Errorf("%s: %w", p.Name(), err)
		}
		changed = changed || c
	}
	return changed, nil
}
