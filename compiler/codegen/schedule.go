package codegen

// schedule holds instructions that belong to a block's final emission but
// were decided while processing a different block — the prefix/suffix tags
// If/While lowering attaches to a body or alternative's entry/exit block
// (spec §4.4 "Schedule entries are keyed by target block index").
type schedule struct {
	prefix map[int][]Instruction
	suffix map[int][]Instruction
}

func newSchedule() *schedule {
	return &schedule{prefix: map[int][]Instruction{}, suffix: map[int][]Instruction{}}
}

func (s *schedule) addPrefix(block int, instrs ...Instruction) {
	s.prefix[block] = append(s.prefix[block], instrs...)
}

func (s *schedule) addSuffix(block int, instrs ...Instruction) {
	s.suffix[block] = append(s.suffix[block], instrs...)
}
