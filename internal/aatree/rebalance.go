package aatree

// skew resolves a left child on the same level as n with a right rotation.
// The rotated-in node takes over n's address and n moves into the slot its
// left child occupied, so the subtree root address is unchanged.
func (t *Tree[T]) skew(n node) (node, error) {
	if n.Left == NilPos {
		return n, nil
	}
	l, err := t.node(n.Left)
	if err != nil {
		return n, err
	}
	if l.Level != n.Level {
		return n, nil
	}

	moved := node{
		off: l.off,
		Entry: Entry{
			Object: n.Object,
			Left:   l.Right,
			Right:  n.Right,
			Level:  n.Level,
		},
	}
	root := node{
		off: n.off,
		Entry: Entry{
			Object: l.Object,
			Left:   l.Left,
			Right:  moved.off,
			Level:  l.Level,
		},
	}
	if err := t.write(moved); err != nil {
		return n, err
	}
	if err := t.write(root); err != nil {
		return n, err
	}
	return root, nil
}

// split resolves two consecutive right children on n's level with a left
// rotation that raises the middle node one level. Like skew it keeps the
// subtree root at n's address.
func (t *Tree[T]) split(n node) (node, error) {
	if n.Right == NilPos {
		return n, nil
	}
	r, err := t.node(n.Right)
	if err != nil {
		return n, err
	}
	if r.Right == NilPos {
		return n, nil
	}
	rrLevel, err := t.level(r.Right)
	if err != nil {
		return n, err
	}
	if rrLevel != n.Level {
		return n, nil
	}

	moved := node{
		off: r.off,
		Entry: Entry{
			Object: n.Object,
			Left:   n.Left,
			Right:  r.Left,
			Level:  n.Level,
		},
	}
	root := node{
		off: n.off,
		Entry: Entry{
			Object: r.Object,
			Left:   moved.off,
			Right:  r.Right,
			Level:  r.Level + 1,
		},
	}
	if err := t.write(moved); err != nil {
		return n, err
	}
	if err := t.write(root); err != nil {
		return n, err
	}
	return root, nil
}

// rebalance restores the AA invariants at n after a deletion below it.
// n must already be persisted.
func (t *Tree[T]) rebalance(n node) (node, error) {
	ll, err := t.level(n.Left)
	if err != nil {
		return n, err
	}
	rl, err := t.level(n.Right)
	if err != nil {
		return n, err
	}

	if want := min(ll, rl) + 1; want < n.Level {
		n.Level = want
		if err := t.write(n); err != nil {
			return n, err
		}
		if rl > want {
			r, err := t.node(n.Right)
			if err != nil {
				return n, err
			}
			r.Level = want
			if err := t.write(r); err != nil {
				return n, err
			}
		}
	}

	if n, err = t.skew(n); err != nil {
		return n, err
	}
	if n.Right != NilPos {
		r, err := t.node(n.Right)
		if err != nil {
			return n, err
		}
		if r, err = t.skew(r); err != nil {
			return n, err
		}
		if r.Right != NilPos {
			rr, err := t.node(r.Right)
			if err != nil {
				return n, err
			}
			if _, err := t.skew(rr); err != nil {
				return n, err
			}
		}
	}

	if n, err = t.split(n); err != nil {
		return n, err
	}
	if n.Right != NilPos {
		r, err := t.node(n.Right)
		if err != nil {
			return n, err
		}
		if _, err := t.split(r); err != nil {
			return n, err
		}
	}
	return n, nil
}
