package mir

type Block struct {
	ID     BlockID    `msgpack:"i"`
	Instrs []Instr    `msgpack:"s,omitempty"`
	Term   Terminator `msgpack:"t"`
}

func (b *Block) Terminated() bool {
	if b == nil {
		return true
	}
	return b.Term.Kind != TermNone
}

func (b *Block) empty() bool {
	return len(b.Instrs) == 0 && b.Term.Kind == TermNone
}
