package hamt

// Insert binds key to value if key is not already present. It reports
// whether the binding was newly created; on a hit, the existing value is
// preserved and the trie is left untouched (no heap node is created for a
// pure lookup hit).
func (idx *Index[K, V]) Insert(r StoreReader, key K, value V) (V, bool, error) {
	return idx.put(r, key, value, false)
}

// InsertOrAssign binds key to value, replacing any existing value for key.
func (idx *Index[K, V]) InsertOrAssign(r StoreReader, key K, value V) (V, bool, error) {
	return idx.put(r, key, value, true)
}

func (idx *Index[K, V]) put(r StoreReader, key K, value V, assign bool) (V, bool, error) {
	hash := idx.hash(key)
	newLeaf := pair[K, V]{key: key, value: value, hash: hash}
	newRoot, changed, existed, existingVal, err := idx.mutate(r, idx.root, hash, 0, newLeaf, assign)
	if err != nil {
		var zv V
		return zv, false, err
	}
	if changed {
		idx.root = newRoot
		idx.touched = true
	}
	if existed {
		if assign {
			idx.touched = idx.touched || changed
			return value, false, nil
		}
		return existingVal, false, nil
	}
	idx.count++
	return value, true, nil
}

// mutate is the recursive core of Insert/InsertOrAssign. It returns the
// (possibly unchanged) child that should replace root, whether it differs
// from root (changed), whether key already existed, and key's prior value
// if so.
func (idx *Index[K, V]) mutate(r StoreReader, root child[K, V], hash uint64, shift uint, newLeaf pair[K, V], assign bool) (child[K, V], bool, bool, V, error) {
	var zero V

	switch root.kind {
	case childStoreLeaf, childHeapLeaf:
		if root.addr.IsNull() && root.kind == childStoreLeaf && root.leaf == nil {
			// The distinguished empty-tree sentinel.
			return child[K, V]{kind: childHeapLeaf, leaf: &newLeaf}, true, false, zero, nil
		}
		key, oldHash, err := idx.keyHashOf(r, root)
		if err != nil {
			return child[K, V]{}, false, false, zero, err
		}
		if idx.eq(key, newLeaf.key) {
			existingVal, err := idx.valueOf(r, root)
			if err != nil {
				return child[K, V]{}, false, false, zero, err
			}
			if !assign {
				return root, false, true, existingVal, nil
			}
			return child[K, V]{kind: childHeapLeaf, leaf: &newLeaf}, true, true, existingVal, nil
		}
		// Different key sharing this slot: split into a fresh subtree.
		newRef := child[K, V]{kind: childHeapLeaf, leaf: &newLeaf}
		split := buildSplit(root, oldHash, newRef, hash, shift)
		return split, true, false, zero, nil

	case childStoreInternal, childHeapNode:
		return idx.mutateNode(r, root, hash, shift, newLeaf, assign)

	case childStoreLinear:
		entries, err := loadLinear(r, root.addr)
		if err != nil {
			return child[K, V]{}, false, false, zero, err
		}
		children := make([]child[K, V], len(entries))
		for i, a := range entries {
			children[i] = child[K, V]{kind: childStoreLeaf, addr: a}
		}
		return idx.mutateLinear(r, &node[K, V]{isLinear: true, children: children}, newLeaf, assign)

	default:
		return child[K, V]{}, false, false, zero, nil
	}
}

func (idx *Index[K, V]) mutateNode(r StoreReader, root child[K, V], hash uint64, shift uint, newLeaf pair[K, V], assign bool) (child[K, V], bool, bool, V, error) {
	var zero V
	var nd *node[K, V]
	var linear bool

	if root.kind == childHeapNode {
		nd = root.node
		linear = nd.isLinear
	} else {
		bitmap, entries, err := loadInternal(r, root.addr)
		if err != nil {
			return child[K, V]{}, false, false, zero, err
		}
		children := make([]child[K, V], len(entries))
		for i, e := range entries {
			children[i] = child[K, V]{kind: e.kind, addr: e.addr}
		}
		nd = &node[K, V]{bitmap: bitmap, children: children}
	}

	if linear {
		return idx.mutateLinear(r, nd, newLeaf, assign)
	}

	idxBit := slotIndex(hash, shift)
	bitMask := uint64(1) << uint(idxBit)

	if nd.bitmap&bitMask == 0 {
		pos := bitmapPosition(nd.bitmap, idxBit)
		newChildren := make([]child[K, V], 0, len(nd.children)+1)
		newChildren = append(newChildren, nd.children[:pos]...)
		newChildren = append(newChildren, child[K, V]{kind: childHeapLeaf, leaf: &newLeaf})
		newChildren = append(newChildren, nd.children[pos:]...)
		newNode := &node[K, V]{bitmap: nd.bitmap | bitMask, children: newChildren}
		return child[K, V]{kind: childHeapNode, node: newNode}, true, false, zero, nil
	}

	pos := bitmapPosition(nd.bitmap, idxBit)
	existingChild := nd.children[pos]

	switch existingChild.kind {
	case childStoreLeaf, childHeapLeaf:
		key, oldHash, err := idx.keyHashOf(r, existingChild)
		if err != nil {
			return child[K, V]{}, false, false, zero, err
		}
		if idx.eq(key, newLeaf.key) {
			existingVal, err := idx.valueOf(r, existingChild)
			if err != nil {
				return child[K, V]{}, false, false, zero, err
			}
			if !assign {
				return root, false, true, existingVal, nil
			}
			newChildren := cloneChildren(nd.children)
			newChildren[pos] = child[K, V]{kind: childHeapLeaf, leaf: &newLeaf}
			newNode := &node[K, V]{bitmap: nd.bitmap, children: newChildren}
			return child[K, V]{kind: childHeapNode, node: newNode}, true, true, existingVal, nil
		}
		newRef := child[K, V]{kind: childHeapLeaf, leaf: &newLeaf}
		split := buildSplit(existingChild, oldHash, newRef, hash, shift+6)
		newChildren := cloneChildren(nd.children)
		newChildren[pos] = split
		newNode := &node[K, V]{bitmap: nd.bitmap, children: newChildren}
		return child[K, V]{kind: childHeapNode, node: newNode}, true, false, zero, nil

	default: // internal or linear child: recurse
		subNew, changed, existed, existingVal, err := idx.mutate(r, existingChild, hash, shift+6, newLeaf, assign)
		if err != nil {
			return child[K, V]{}, false, false, zero, err
		}
		if !changed {
			return root, false, existed, existingVal, nil
		}
		newChildren := cloneChildren(nd.children)
		newChildren[pos] = subNew
		newNode := &node[K, V]{bitmap: nd.bitmap, children: newChildren}
		return child[K, V]{kind: childHeapNode, node: newNode}, true, existed, existingVal, nil
	}
}

func (idx *Index[K, V]) mutateLinear(r StoreReader, nd *node[K, V], newLeaf pair[K, V], assign bool) (child[K, V], bool, bool, V, error) {
	var zero V
	for i, c := range nd.children {
		key, _, err := idx.keyHashOf(r, c)
		if err != nil {
			return child[K, V]{}, false, false, zero, err
		}
		if idx.eq(key, newLeaf.key) {
			existingVal, err := idx.valueOf(r, c)
			if err != nil {
				return child[K, V]{}, false, false, zero, err
			}
			if !assign {
				return child[K, V]{kind: childHeapNode, node: nd}, false, true, existingVal, nil
			}
			newChildren := cloneChildren(nd.children)
			newChildren[i] = child[K, V]{kind: childHeapLeaf, leaf: &newLeaf}
			newNode := &node[K, V]{isLinear: true, children: newChildren}
			return child[K, V]{kind: childHeapNode, node: newNode}, true, true, existingVal, nil
		}
	}
	newChildren := append(cloneChildren(nd.children), child[K, V]{kind: childHeapLeaf, leaf: &newLeaf})
	newNode := &node[K, V]{isLinear: true, children: newChildren}
	return child[K, V]{kind: childHeapNode, node: newNode}, true, false, zero, nil
}

func cloneChildren[K, V any](in []child[K, V]) []child[K, V] {
	out := make([]child[K, V], len(in))
	copy(out, in)
	return out
}

// buildSplit creates the subtree that replaces a single leaf slot once a
// second, differently-keyed leaf needs to share it: a chain of internal
// nodes is grown from shift until the two hashes' bits diverge, falling
// back to a linear node once shift reaches maxShift.
func buildSplit[K, V any](oldLeaf child[K, V], oldHash uint64, newLeaf child[K, V], newHash uint64, shift uint) child[K, V] {
	if shift >= maxShift {
		nd := &node[K, V]{isLinear: true, children: []child[K, V]{oldLeaf, newLeaf}}
		return child[K, V]{kind: childHeapNode, node: nd}
	}
	oldIdx := slotIndex(oldHash, shift)
	newIdx := slotIndex(newHash, shift)
	if oldIdx != newIdx {
		bitmap := uint64(1)<<uint(oldIdx) | uint64(1)<<uint(newIdx)
		children := make([]child[K, V], 2)
		if bitmapPosition(bitmap, oldIdx) == 0 {
			children[0], children[1] = oldLeaf, newLeaf
		} else {
			children[0], children[1] = newLeaf, oldLeaf
		}
		return child[K, V]{kind: childHeapNode, node: &node[K, V]{bitmap: bitmap, children: children}}
	}
	sub := buildSplit[K, V](oldLeaf, oldHash, newLeaf, newHash, shift+6)
	bitmap := uint64(1) << uint(oldIdx)
	return child[K, V]{kind: childHeapNode, node: &node[K, V]{bitmap: bitmap, children: []child[K, V]{sub}}}
}

// Find looks up key, returning its value and whether it was present.
func (idx *Index[K, V]) Find(r StoreReader, key K) (V, bool, error) {
	var zero V
	hash := idx.hash(key)
	cur := idx.root
	shift := uint(0)
	for {
		switch cur.kind {
		case childStoreLeaf, childHeapLeaf:
			if cur.addr.IsNull() && cur.kind == childStoreLeaf && cur.leaf == nil {
				return zero, false, nil
			}
			k, _, err := idx.keyHashOf(r, cur)
			if err != nil {
				return zero, false, err
			}
			if idx.eq(k, key) {
				v, err := idx.valueOf(r, cur)
				return v, err == nil, err
			}
			return zero, false, nil

		case childStoreLinear:
			entries, err := loadLinear(r, cur.addr)
			if err != nil {
				return zero, false, err
			}
			for _, a := range entries {
				k, v, _, err := idx.loadLeaf(r, a)
				if err != nil {
					return zero, false, err
				}
				if idx.eq(k, key) {
					return v, true, nil
				}
			}
			return zero, false, nil

		case childHeapNode:
			if cur.node.isLinear {
				for _, c := range cur.node.children {
					k, _, err := idx.keyHashOf(r, c)
					if err != nil {
						return zero, false, err
					}
					if idx.eq(k, key) {
						v, err := idx.valueOf(r, c)
						return v, err == nil, err
					}
				}
				return zero, false, nil
			}
			idxBit := slotIndex(hash, shift)
			if cur.node.bitmap&(uint64(1)<<uint(idxBit)) == 0 {
				return zero, false, nil
			}
			pos := bitmapPosition(cur.node.bitmap, idxBit)
			cur = cur.node.children[pos]
			shift += 6

		case childStoreInternal:
			bitmap, entries, err := loadInternal(r, cur.addr)
			if err != nil {
				return zero, false, err
			}
			idxBit := slotIndex(hash, shift)
			if bitmap&(uint64(1)<<uint(idxBit)) == 0 {
				return zero, false, nil
			}
			pos := bitmapPosition(bitmap, idxBit)
			e := entries[pos]
			cur = child[K, V]{kind: e.kind, addr: e.addr}
			shift += 6

		default:
			return zero, false, nil
		}
	}
}

// Contains reports whether key is bound in the index.
func (idx *Index[K, V]) Contains(r StoreReader, key K) (bool, error) {
	_, ok, err := idx.Find(r, key)
	return ok, err
}
