package samal

// segment is one maximal jittable or non-jittable span of bytecode (spec
// §4.I "Optional JIT"). This implementation never compiles native code for
// a jittable span — per spec §9 "JIT portability", "a portable
// implementation may ship the interpreter only" — but it still builds an
// ip→segment lookup table that the VM consults before each instruction.
// segment carries no native entry point.
type segment struct {
	start, end int // [start, end) byte range within Program.Code
	jittable   bool
}

// haltSentinel is the ip value a jitted span would use to signal halt
// (spec §4.I "An ip equal to the sentinel 0x42424242 indicates halt").
// Retained here even though no span ever reaches it in the
// interpreter-only configuration, since the ip→segment table's shape is
// otherwise identical to a build with real codegen.
const haltSentinel = 0x42424242

// jitTable holds a Program's code segments and a map from each segment's
// starting ip to its index (spec §4.I "an ip → segment table built at VM
// construction"). segmentFor finds the owning segment by a linear scan
// over segments; byStartIP is not consulted.
type jitTable struct {
	segments  []segment
	byStartIP map[int]int // ip -> index into segments
}

// buildJITTable walks the code region opcode-by-opcode without classifying
// any instruction, then records the whole code region as a single
// non-jittable segment, since this implementation ships the interpreter
// only.
func buildJITTable(p *Program) *jitTable {
	t := &jitTable{byStartIP: map[int]int{}}
	ip := 0
	spanStart := 0
	for ip < len(p.Code) {
		op := Opcode(p.Code[ip])
		width := op.Width()
		if width == 0 {
			width = 1
		}
		ip += width
	}
	t.segments = append(t.segments, segment{start: spanStart, end: len(p.Code), jittable: false})
	for i, s := range t.segments {
		t.byStartIP[s.start] = i
	}
	return t
}

// segmentFor returns the segment owning ip, or false if ip is out of
// range (e.g. it equals haltSentinel).
func (t *jitTable) segmentFor(ip int) (segment, bool) {
	for _, s := range t.segments {
		if ip >= s.start && ip < s.end {
			return s, true
		}
	}
	return segment{}, false
}
