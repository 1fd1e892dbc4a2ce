package aatree

import "fmt"

// Verify walks the whole tree and checks the AA level rules, the ordering of
// values and the element count. It returns the first violation found.
func (t *Tree[T]) Verify() error {
	if t.size == 0 {
		return nil
	}

	var (
		count   int
		prev    T
		hasPrev bool
		stack   []int64
	)
	visited := make(map[int64]struct{}, t.size)

	// In-order walk so ordering can be checked along the way.
	off := rootPos
	for off != NilPos || len(stack) > 0 {
		for off != NilPos {
			if _, dup := visited[off]; dup {
				return fmt.Errorf("aatree: node %d reachable twice", off)
			}
			visited[off] = struct{}{}
			if len(stack) > t.size {
				return fmt.Errorf("aatree: path deeper than element count")
			}
			stack = append(stack, off)
			n, err := t.node(off)
			if err != nil {
				return err
			}
			off = n.Left
		}

		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, err := t.node(top)
		if err != nil {
			return err
		}
		if err := t.checkLevels(n); err != nil {
			return err
		}
		if t.free.Contains(uint64(n.off / EntrySize)) {
			return fmt.Errorf("aatree: live node %d is in the free set", n.off)
		}

		v, err := t.value(n)
		if err != nil {
			return err
		}
		if hasPrev && t.compare(prev, v) > 0 {
			return fmt.Errorf("aatree: node %d out of order", n.off)
		}
		prev, hasPrev = v, true
		count++

		off = n.Right
	}

	if count != t.size {
		return fmt.Errorf("aatree: found %d nodes, expected %d", count, t.size)
	}
	return nil
}

func (t *Tree[T]) checkLevels(n node) error {
	ll, err := t.level(n.Left)
	if err != nil {
		return err
	}
	rl, err := t.level(n.Right)
	if err != nil {
		return err
	}

	switch {
	case n.Level < 1:
		return fmt.Errorf("aatree: node %d has level %d", n.off, n.Level)
	case n.isLeaf() && n.Level != 1:
		return fmt.Errorf("aatree: leaf %d has level %d", n.off, n.Level)
	case ll != n.Level-1:
		return fmt.Errorf("aatree: node %d level %d has left child level %d", n.off, n.Level, ll)
	case rl != n.Level && rl != n.Level-1:
		return fmt.Errorf("aatree: node %d level %d has right child level %d", n.off, n.Level, rl)
	case n.Level > 1 && (n.Left == NilPos || n.Right == NilPos):
		return fmt.Errorf("aatree: node %d above level 1 lacks a child", n.off)
	}

	if n.Right != NilPos {
		r, err := t.node(n.Right)
		if err != nil {
			return err
		}
		rrl, err := t.level(r.Right)
		if err != nil {
			return err
		}
		if rrl >= n.Level {
			return fmt.Errorf("aatree: node %d has right grandchild on its level", n.off)
		}
	}
	return nil
}
