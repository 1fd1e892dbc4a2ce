package aatree

// Delete removes one value equal to v and reports whether one was found.
// When the last value is removed both stores are reset.
func (t *Tree[T]) Delete(v T) (bool, error) {
	if t.size == 0 {
		return false, nil
	}

	found, _, err := t.delete(rootPos, v)
	if err != nil || !found {
		return found, err
	}

	t.size--
	t.mod++
	t.dead++

	if t.size == 0 {
		return true, t.Reset()
	}
	return true, nil
}

// delete removes v from the subtree at off. gone reports that the node at
// off was a leaf and has been released, so the parent must drop its link.
//
// A matched inner node is never released. It takes over the value of its
// in-order neighbour, and the neighbour is removed from below instead.
func (t *Tree[T]) delete(off int64, v T) (found, gone bool, err error) {
	n, err := t.node(off)
	if err != nil {
		return false, false, err
	}
	cur, err := t.value(n)
	if err != nil {
		return false, false, err
	}

	switch c := t.compare(v, cur); {
	case c < 0:
		if n.Left == NilPos {
			return false, false, nil
		}
		found, gone, err := t.delete(n.Left, v)
		if err != nil || !found {
			return found, false, err
		}
		if gone {
			n.Left = NilPos
		}
	case c > 0:
		if n.Right == NilPos {
			return false, false, nil
		}
		found, gone, err := t.delete(n.Right, v)
		if err != nil || !found {
			return found, false, err
		}
		if gone {
			n.Right = NilPos
		}
	default:
		switch {
		case n.Left != NilPos:
			obj, gone, err := t.deleteMax(n.Left)
			if err != nil {
				return true, false, err
			}
			n.Object = obj
			if gone {
				n.Left = NilPos
			}
		case n.Right != NilPos:
			obj, gone, err := t.deleteMin(n.Right)
			if err != nil {
				return true, false, err
			}
			n.Object = obj
			if gone {
				n.Right = NilPos
			}
		default:
			t.release(off)
			return true, true, nil
		}
	}

	if err := t.write(n); err != nil {
		return true, false, err
	}
	_, err = t.rebalance(n)
	return true, false, err
}

// deleteMax unlinks the rightmost value of the subtree at off and returns
// its contents offset.
func (t *Tree[T]) deleteMax(off int64) (obj int64, gone bool, err error) {
	n, err := t.node(off)
	if err != nil {
		return 0, false, err
	}
	obj = n.Object

	switch {
	case n.Right != NilPos:
		heir, gone, err := t.deleteMax(n.Right)
		if err != nil {
			return 0, false, err
		}
		if gone {
			n.Right = NilPos
		}
		// n keeps its value; the returned object is the heir's.
		obj = heir
	case n.Left != NilPos:
		heir, gone, err := t.deleteMax(n.Left)
		if err != nil {
			return 0, false, err
		}
		n.Object = heir
		if gone {
			n.Left = NilPos
		}
	default:
		t.release(off)
		return obj, true, nil
	}

	if err := t.write(n); err != nil {
		return 0, false, err
	}
	if _, err := t.rebalance(n); err != nil {
		return 0, false, err
	}
	return obj, false, nil
}

// deleteMin unlinks the leftmost value of the subtree at off and returns its
// contents offset.
func (t *Tree[T]) deleteMin(off int64) (obj int64, gone bool, err error) {
	n, err := t.node(off)
	if err != nil {
		return 0, false, err
	}
	obj = n.Object

	switch {
	case n.Left != NilPos:
		heir, gone, err := t.deleteMin(n.Left)
		if err != nil {
			return 0, false, err
		}
		if gone {
			n.Left = NilPos
		}
		obj = heir
	case n.Right != NilPos:
		heir, gone, err := t.deleteMin(n.Right)
		if err != nil {
			return 0, false, err
		}
		n.Object = heir
		if gone {
			n.Right = NilPos
		}
	default:
		t.release(off)
		return obj, true, nil
	}

	if err := t.write(n); err != nil {
		return 0, false, err
	}
	if _, err := t.rebalance(n); err != nil {
		return 0, false, err
	}
	return obj, false, nil
}
