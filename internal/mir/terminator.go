package mir

type TermKind uint8

const (
	TermNone TermKind = iota
	TermGoto
	TermReturn
	TermSwitchInt
	TermCall
)

type Terminator struct {
	Kind TermKind `msgpack:"k"`

	Goto      GotoTerm      `msgpack:"g,omitempty"`
	SwitchInt SwitchIntTerm `msgpack:"s,omitempty"`
	Call      CallTerm      `msgpack:"c,omitempty"`
}

type GotoTerm struct {
	Target BlockID `msgpack:"t"`
}

type SwitchCase struct {
	Value  uint64  `msgpack:"v"`
	Target BlockID `msgpack:"t"`
}

// SwitchIntTerm jumps to the case whose value equals Value, else Otherwise.
// Cases are kept sorted by value.
type SwitchIntTerm struct {
	Value     Operand      `msgpack:"v"`
	Cases     []SwitchCase `msgpack:"c"`
	Otherwise BlockID      `msgpack:"o"`
}

// CallTerm calls Fn, stores the result into Dst and continues at Next.
type CallTerm struct {
	Fn   FuncRef   `msgpack:"f"`
	Args []Operand `msgpack:"a,omitempty"`
	Dst  Place     `msgpack:"d"`
	Next BlockID   `msgpack:"n"`
}

// Successors lists the blocks control may transfer to.
func (t *Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermGoto:
		return []BlockID{t.Goto.Target}
	case TermCall:
		return []BlockID{t.Call.Next}
	case TermSwitchInt:
		out := make([]BlockID, 0, len(t.SwitchInt.Cases)+1)
		for _, c := range t.SwitchInt.Cases {
			out = append(out, c.Target)
		}
		return append(out, t.SwitchInt.Otherwise)
	default:
		return nil
	}
}

// retarget rewrites every edge equal to from.
func (t *Terminator) retarget(from, to BlockID) {
	switch t.Kind {
	case TermGoto:
		if t.Goto.Target == from {
			t.Goto.Target = to
		}
	case TermCall:
		if t.Call.Next == from {
			t.Call.Next = to
		}
	case TermSwitchInt:
		for i := range t.SwitchInt.Cases {
			if t.SwitchInt.Cases[i].Target == from {
				t.SwitchInt.Cases[i].Target = to
			}
		}
		if t.SwitchInt.Otherwise == from {
			t.SwitchInt.Otherwise = to
		}
	}
}
