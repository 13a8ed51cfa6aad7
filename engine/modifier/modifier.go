// Package modifier rewrites effect trees before they run. It is applied
// once per template assembly; applying a modifier twice compounds it.
package modifier

import (
	"github.com/nathoo/battlecore/engine/effects"
	"github.com/nathoo/battlecore/types"
)

// Apply rewrites the tree in place and returns how many nodes it changed.
func Apply(m types.Modifier, root *types.Effect) int {
	n := 0
	effects.Walk(root, func(slot *types.Effect) {
		if rewrite(m, slot) {
			n++
		}
	})
	return n
}

// ApplyAll applies every modifier, in order, to every reaction's effects
// and to the optional attack tree.
func ApplyAll(mods []types.Modifier, reactions []types.Reaction, attack *types.Effect) int {
	n := 0
	for _, m := range mods {
		for i := range reactions {
			for j := range reactions[i].Effects {
				n += Apply(m, &reactions[i].Effects[j])
			}
		}
		if attack != nil {
			n += Apply(m, attack)
		}
	}
	return n
}

func rewrite(m types.Modifier, slot *types.Effect) bool {
	switch mod := m.(type) {
	case *types.Strength:
		d, ok := (*slot).(*types.Damage)
		if !ok {
			return false
		}
		d.Value = scale(d.Value, mod.Multiplier, mod.Add)
		return true

	case *types.Healing:
		h, ok := (*slot).(*types.Heal)
		if !ok {
			return false
		}
		h.Value = scale(h.Value, mod.Multiplier, mod.Add)
		return true

	case *types.Crit:
		d, ok := (*slot).(*types.Damage)
		if !ok || mod.Chance <= 0 {
			return false
		}
		boosted := *d
		boosted.Value = scale(d.Value, mod.Multiplier, 0)
		choices := []types.Choice{{Weight: mod.Chance, Effect: &boosted}}
		if mod.Chance < 100 {
			choices = append(choices, types.Choice{Weight: 100 - mod.Chance, Effect: d})
		}
		*slot = &types.Random{Choices: choices}
		return true
	}
	return false
}

// scale wraps e as e*mult + add.
func scale(e types.Expr, mult, add float64) types.Expr {
	return &types.Binary{
		Op: types.OpAdd,
		A:  &types.Binary{Op: types.OpMul, A: e, B: &types.Const{Value: mult}},
		B:  &types.Const{Value: add},
	}
}
