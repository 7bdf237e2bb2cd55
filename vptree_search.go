package nn

// Nearest writes the k elements closest to q into out, nearest first, and
// returns how many were found. The count is below k only when the tree
// holds fewer than k elements. out must have room for k handles.
func (t *VPTree) Nearest(q []float64, k int, out []*Element) (int, error) {
	if err := checkOut(k, out); err != nil {
		return 0, err
	}
	ns, err := t.Search(q, k)
	if err != nil {
		return 0, err
	}
	return copyElements(out, ns), nil
}

// Search returns the k nearest elements to q with their distances, in
// ascending distance order.
func (t *VPTree) Search(q []float64, k int) ([]Neighbor, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := checkDim(t.cfg.Dim, q); err != nil {
		return nil, err
	}
	rs := newKNNResult(min(k, max(t.size, 1)))
	t.search(t.root, q, rs)
	return rs.results(), nil
}

// Within returns every element within radius of q, in ascending distance
// order.
func (t *VPTree) Within(q []float64, radius float64) ([]Neighbor, error) {
	if err := checkDim(t.cfg.Dim, q); err != nil {
		return nil, err
	}
	rs := newRangeResult(radius)
	t.search(t.root, q, rs)
	return rs.results(), nil
}

// search visits the side of each vantage point the query falls on first,
// then the other side unless the triangle inequality rules it out given the
// current cutoff D: right is skipped when d+D < radius, left when
// d-D > radius.
func (t *VPTree) search(id int32, q []float64, rs *resultSet) {
	n := t.nodes.at(id)
	if n.isLeaf() {
		for _, el := range n.bucket {
			rs.offer(el, sanitizeDist(t.metric.Distance(q, el.point)))
		}
		return
	}

	d := sanitizeDist(t.metric.Distance(n.vp, q))
	if d <= n.radius {
		t.search(n.left, q, rs)
		if d+rs.cutoff() >= n.radius {
			t.search(n.right, q, rs)
		}
		return
	}
	t.search(n.right, q, rs)
	if d-rs.cutoff() <= n.radius {
		t.search(n.left, q, rs)
	}
}
