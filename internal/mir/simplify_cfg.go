package mir

// SimplifyCFG performs control flow graph simplification on a body.
// Transformations:
// 1. Remove trivial goto blocks (0 instructions + goto terminator)
// 2. Collapse goto chains
// 3. Remove unreachable blocks
// 4. Renumber blocks deterministically
//
// The entry block keeps id 0.
func SimplifyCFG(b *Body) {
	if b == nil || len(b.Blocks) == 0 {
		return
	}
	redirects := buildRedirectMap(b)
	for i := range b.Blocks {
		remapEdges(&b.Blocks[i].Term, func(id BlockID) BlockID {
			if to, ok := redirects[id]; ok {
				return to
			}
			return id
		})
	}
	compactBlocks(b, computeReachability(b))
}

// SimplifyModule runs SimplifyCFG on every body of m, static initializers
// included.
func SimplifyModule(m *Module) {
	for _, f := range m.Funcs {
		if !f.Builtin {
			SimplifyCFG(&f.Body)
		}
	}
	for _, dt := range m.DataTypes {
		for i := range dt.Static {
			SimplifyCFG(&dt.Static[i].Init)
		}
	}
}

// buildRedirectMap finds all trivial goto blocks and maps them to their
// final targets, following chains. The entry block is never redirected.
func buildRedirectMap(b *Body) map[BlockID]BlockID {
	redirects := make(map[BlockID]BlockID)
	for i := 1; i < len(b.Blocks); i++ {
		bb := &b.Blocks[i]
		if !isTrivialGoto(b, bb.ID) {
			continue
		}
		target := bb.Term.Goto.Target
		visited := map[BlockID]bool{bb.ID: true}
		for !visited[target] && isTrivialGoto(b, target) && target != 0 {
			visited[target] = true
			target = b.Blocks[target].Term.Goto.Target
		}
		if visited[target] {
			// a cycle of empty blocks; leave it alone
			continue
		}
		redirects[bb.ID] = target
	}
	return redirects
}

func isTrivialGoto(b *Body, id BlockID) bool {
	if id < 0 || int(id) >= len(b.Blocks) {
		return false
	}
	bb := &b.Blocks[id]
	return len(bb.Instrs) == 0 && bb.Term.Kind == TermGoto
}

// computeReachability marks the blocks reachable from the entry block.
func computeReachability(b *Body) []bool {
	reachable := make([]bool, len(b.Blocks))
	stack := []BlockID{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id < 0 || int(id) >= len(b.Blocks) || reachable[id] {
			continue
		}
		reachable[id] = true
		stack = append(stack, b.Blocks[id].Term.Successors()...)
	}
	return reachable
}

// compactBlocks removes unreachable blocks and renumbers the remaining ones
// in their original order.
func compactBlocks(b *Body, reachable []bool) {
	oldToNew := make(map[BlockID]BlockID, len(b.Blocks))
	kept := make([]Block, 0, len(b.Blocks))
	for i, keep := range reachable {
		if !keep {
			continue
		}
		oldToNew[BlockID(i)] = BlockID(len(kept)) //nolint:gosec // bounded by the block count
		kept = append(kept, b.Blocks[i])
	}
	for i := range kept {
		kept[i].ID = BlockID(i) //nolint:gosec // bounded by the block count
		remapEdges(&kept[i].Term, func(id BlockID) BlockID {
			if to, ok := oldToNew[id]; ok {
				return to
			}
			return id
		})
	}
	b.Blocks = kept
}

// remapEdges rewrites every successor of t through f.
func remapEdges(t *Terminator, f func(BlockID) BlockID) {
	switch t.Kind {
	case TermGoto:
		t.Goto.Target = f(t.Goto.Target)
	case TermCall:
		t.Call.Next = f(t.Call.Next)
	case TermSwitchInt:
		cases := make([]SwitchCase, len(t.SwitchInt.Cases))
		for i, c := range t.SwitchInt.Cases {
			cases[i] = SwitchCase{Value: c.Value, Target: f(c.Target)}
		}
		t.SwitchInt.Cases = cases
		t.SwitchInt.Otherwise = f(t.SwitchInt.Otherwise)
	}
}
