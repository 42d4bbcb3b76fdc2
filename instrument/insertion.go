package instrument

import "sort"

// insertion is one edit into the original source, applied at byte offset At.
// When End is left zero it is treated as equal to At (a pure insertion,
// consuming no original bytes); a nonzero End replaces the span [At, End)
// with Text outright, which the eval rewrite uses to replace a whole call
// expression in one edit instead of composing several adjacent inserts. This
// is the instrumenter's equivalent of the teacher's inspector/coder/coder.go
// approach of mutating source by byte range.
type insertion struct {
	At   int
	End  int
	Text string
	Seq  int // tie-breaker: edits at the same offset apply in Seq order
}

// splice applies every insertion to src and returns the resulting text.
// Insertions are stable-sorted by (At, Seq) so two edits anchored to the same
// offset (e.g. a scope declaration and a function registration both anchored
// to a block's opening brace) land in a deterministic, caller-controlled
// order.
func splice(src []byte, insertions []insertion) string {
	ins := append([]insertion(nil), insertions...)
	for i := range ins {
		if ins[i].End == 0 {
			ins[i].End = ins[i].At
		}
	}
	sort.SliceStable(ins, func(i, j int) bool {
		if ins[i].At != ins[j].At {
			return ins[i].At < ins[j].At
		}
		return ins[i].Seq < ins[j].Seq
	})

	var out []byte
	last := 0
	for _, i := range ins {
		if i.At < last {
			// overlapping edits should never happen for a single valid
			// instrumentation pass; keep original-order safety by clamping.
			i.At = last
			if i.End < i.At {
				i.End = i.At
			}
		}
		out = append(out, src[last:i.At]...)
		out = append(out, i.Text...)
		last = i.End
	}
	out = append(out, src[last:]...)
	return string(out)
}
