package diff

// Ratcliff/Obershelp sequence matching over line slices: repeatedly find the
// longest contiguous matching block, then match the pieces to its left and
// right. Equivalent alignment to the classic difflib matcher, without the
// junk/popular-element heuristics (prompt histories are small).

// match is one contiguous run of identical lines: a[A:A+Size] == b[B:B+Size].
type match struct {
	A, B, Size int
}

// opTag labels one opcode of the alignment.
type opTag string

const (
	opEqual   opTag = "equal"
	opDelete  opTag = "delete"
	opInsert  opTag = "insert"
	opReplace opTag = "replace"
)

// opcode maps a[I1:I2] onto b[J1:J2].
type opcode struct {
	Tag            opTag
	I1, I2, J1, J2 int
}

type matcher struct {
	a, b   []string
	b2j    map[string][]int
	blocks []match
}

func newMatcher(a, b []string) *matcher {
	m := &matcher{a: a, b: b, b2j: make(map[string][]int)}
	for j, line := range b {
		m.b2j[line] = append(m.b2j[line], j)
	}
	return m
}

// findLongestMatch returns the longest matching block within
// a[alo:ahi] and b[blo:bhi]. Of all maximal blocks it prefers the one
// starting earliest in a, then earliest in b.
func (m *matcher) findLongestMatch(alo, ahi, blo, bhi int) match {
	best := match{A: alo, B: blo}
	// j2len[j] = length of the longest match ending at a[i-1], b[j].
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > best.Size {
				best = match{A: i - k + 1, B: j - k + 1, Size: k}
			}
		}
		j2len = newJ2len
	}
	return best
}

// matchingBlocks returns all matching blocks, ascending in both sequences,
// adjacent blocks merged, terminated by the zero-size sentinel at (len(a), len(b)).
// The result is computed once and cached, so ratio and opcodes share it.
func (m *matcher) matchingBlocks() []match {
	if m.blocks != nil {
		return m.blocks
	}
	type span struct {
		alo, ahi, blo, bhi int
	}
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	var matched []match
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		mb := m.findLongestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if mb.Size == 0 {
			continue
		}
		matched = append(matched, mb)
		if s.alo < mb.A && s.blo < mb.B {
			queue = append(queue, span{s.alo, mb.A, s.blo, mb.B})
		}
		if mb.A+mb.Size < s.ahi && mb.B+mb.Size < s.bhi {
			queue = append(queue, span{mb.A + mb.Size, s.ahi, mb.B + mb.Size, s.bhi})
		}
	}
	sortMatches(matched)

	// Merge adjacent blocks.
	var blocks []match
	for _, mb := range matched {
		if n := len(blocks); n > 0 {
			last := &blocks[n-1]
			if last.A+last.Size == mb.A && last.B+last.Size == mb.B {
				last.Size += mb.Size
				continue
			}
		}
		blocks = append(blocks, mb)
	}
	m.blocks = append(blocks, match{A: len(m.a), B: len(m.b)})
	return m.blocks
}

func sortMatches(ms []match) {
	// Blocks never overlap, so ordering by A alone is total.
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0 && ms[j].A < ms[j-1].A; j-- {
			ms[j], ms[j-1] = ms[j-1], ms[j]
		}
	}
}

// opcodes lowers the matching blocks into instructions covering both
// sequences end to end.
func (m *matcher) opcodes() []opcode {
	var ops []opcode
	i, j := 0, 0
	for _, mb := range m.matchingBlocks() {
		var tag opTag
		switch {
		case i < mb.A && j < mb.B:
			tag = opReplace
		case i < mb.A:
			tag = opDelete
		case j < mb.B:
			tag = opInsert
		}
		if tag != "" {
			ops = append(ops, opcode{Tag: tag, I1: i, I2: mb.A, J1: j, J2: mb.B})
		}
		i, j = mb.A+mb.Size, mb.B+mb.Size
		if mb.Size > 0 {
			ops = append(ops, opcode{Tag: opEqual, I1: mb.A, I2: i, J1: mb.B, J2: j})
		}
	}
	return ops
}

// ratio is 2*M/T where M is the number of matched lines and T the total
// line count of both sequences. 1.0 iff the sequences are identical
// (including both empty), 0.0 iff they share no line.
func (m *matcher) ratio() float64 {
	matches := 0
	for _, mb := range m.matchingBlocks() {
		matches += mb.Size
	}
	total := len(m.a) + len(m.b)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matches) / float64(total)
}

// splitLines splits s into lines preserving terminators, so joining the
// result reproduces s exactly.
func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
