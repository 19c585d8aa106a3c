package simplify

import "slices"

// IndexSublist reports where sub occurs as a contiguous run inside container.
//
// With strict set, container must be strictly longer than sub: an equal-length
// match is not a sublist. The search anchors on the first occurrence of
// sub[0]; when the remainder does not follow immediately it retries the whole
// of sub on the tail after that anchor, so a pattern whose head predicate
// repeats is still found at a later offset.
func IndexSublist(container, sub []string, strict bool) (int, bool) {
	lc, ls := len(container), len(sub)
	if ls == 0 || !(lc > ls || (!strict && lc == ls)) {
		return 0, false
	}

	start := slices.Index(container, sub[0])
	if start < 0 {
		return 0, false
	}
	rest := sub[1:]
	if len(rest) == 0 {
		return start, true
	}

	tail := container[start+1:]
	if at, ok := IndexSublist(tail, rest, false); ok && at == 0 {
		return start, true
	}
	if at, ok := IndexSublist(tail, sub, false); ok {
		return start + 1 + at, true
	}
	return 0, false
}
