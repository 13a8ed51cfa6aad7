package effects

import "github.com/nathoo/battlecore/types"

// WalkChildren calls visit with a pointer to each direct child slot of e, in
// declared order. Writing through the pointer replaces the child in place.
func WalkChildren(e types.Effect, visit func(child *types.Effect)) {
	one := func(slot *types.Effect) {
		if *slot != nil {
			visit(slot)
		}
	}
	switch x := e.(type) {
	case *types.List:
		for i := range x.Effects {
			one(&x.Effects[i])
		}
	case *types.Repeat:
		one(&x.Effect)
	case *types.If:
		one(&x.Then)
		one(&x.Else)
	case *types.Random:
		for i := range x.Choices {
			one(&x.Choices[i].Effect)
		}
	case *types.Damage:
		one(&x.OnInjure)
		one(&x.OnKill)
	case *types.ChangeTarget:
		one(&x.Effect)
	case *types.ChangeContext:
		one(&x.Effect)
	case *types.WithVar:
		one(&x.Effect)
	case *types.AOE:
		one(&x.Effect)
	case *types.Spawn:
		one(&x.Then)
	case *types.Delayed:
		one(&x.Effect)
	case *types.TimeBomb:
		one(&x.Effect)
	}
}

// Walk visits every slot in the tree rooted at root, children before their
// parent. A node reachable through several slots is visited once.
func Walk(root *types.Effect, visit func(slot *types.Effect)) {
	walk(root, visit, map[types.Effect]bool{})
}

func walk(slot *types.Effect, visit func(*types.Effect), seen map[types.Effect]bool) {
	if *slot == nil || seen[*slot] {
		return
	}
	seen[*slot] = true
	WalkChildren(*slot, func(child *types.Effect) {
		walk(child, visit, seen)
	})
	visit(slot)
}

// Count returns the number of nodes in a tree.
func Count(e types.Effect) int {
	if e == nil {
		return 0
	}
	n := 1
	WalkChildren(e, func(child *types.Effect) {
		n += Count(*child)
	})
	return n
}

// Depth returns the length of the longest root-to-leaf path.
func Depth(e types.Effect) int {
	if e == nil {
		return 0
	}
	deepest := 0
	WalkChildren(e, func(child *types.Effect) {
		if d := Depth(*child); d > deepest {
			deepest = d
		}
	})
	return deepest + 1
}

// Tier buckets a tree by size: 1 for trivial trees, 3 for large ones.
func Tier(e types.Effect) int {
	switch n := Count(e); {
	case n <= 3:
		return 1
	case n <= 10:
		return 2
	default:
		return 3
	}
}
