package posting

import "strings"

// Dedupe merges postings that describe the same job and returns the surviving
// representatives in first-seen order. Two postings match when their canonical
// links are equal, or when title and company are equal ignoring case and the
// locations are equal ignoring case or one of them is unknown. Matches are
// transitive. The input is not modified.
func Dedupe(items []*Posting) []*Posting {
	sets := newDisjointSet(len(items))

	byLink := make(map[string]int, len(items))
	byIdentity := make(map[string][]int, len(items))

	for i, p := range items {
		if key := CanonicalLink(p.Link); key != "" {
			if j, ok := byLink[key]; ok {
				sets.union(i, j)
			} else {
				byLink[key] = i
			}
		}

		id := identityKey(p)
		for _, j := range byIdentity[id] {
			if locationsMatch(p.Location, items[j].Location) {
				sets.union(i, j)
			}
		}
		byIdentity[id] = append(byIdentity[id], i)
	}

	groups := make(map[int][]*Posting)
	roots := make([]int, 0, len(items))
	for i, p := range items {
		root := sets.find(i)
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], p)
	}

	out := make([]*Posting, 0, len(roots))
	for _, root := range roots {
		out = append(out, mergeGroup(groups[root]))
	}
	return out
}

// Merge combines two postings of the same job. a is the representative.
func Merge(a, b *Posting) *Posting {
	return mergeGroup([]*Posting{a, b})
}

func mergeGroup(members []*Posting) *Posting {
	merged := members[0].clone()

	for _, other := range members[1:] {
		merged.Description = preferDescription(merged.Description, other.Description)
		merged.Link = preferLink(merged.Link, other.Link)
		merged.Sources = mergeSources(merged.Sources, other.Sources)
	}

	if !merged.HasLocation() {
		location := merged.Location
		for _, other := range members[1:] {
			location = preferLocation(location, other.Location)
		}
		merged.Location = location
	}

	return merged
}

// preferDescription picks the non-trivial, then the longer, then the
// lexicographically smaller description. It is symmetric in its arguments.
func preferDescription(a, b string) string {
	at, bt := isTrivialDescription(a), isTrivialDescription(b)
	switch {
	case at && !bt:
		return b
	case bt && !at:
		return a
	}
	return longerOrSmaller(a, b)
}

func preferLocation(a, b string) string {
	ak := !strings.EqualFold(strings.TrimSpace(a), UnknownLocation)
	bk := !strings.EqualFold(strings.TrimSpace(b), UnknownLocation)
	switch {
	case ak && !bk:
		return a
	case bk && !ak:
		return b
	}
	return longerOrSmaller(a, b)
}

func preferLink(a, b string) string {
	ca, cb := CanonicalLink(a), CanonicalLink(b)
	switch {
	case ca < cb:
		return a
	case cb < ca:
		return b
	case a <= b:
		return a
	default:
		return b
	}
}

func longerOrSmaller(a, b string) string {
	la, lb := len([]rune(a)), len([]rune(b))
	switch {
	case la > lb:
		return a
	case lb > la:
		return b
	case a <= b:
		return a
	default:
		return b
	}
}

func identityKey(p *Posting) string {
	return strings.ToLower(strings.TrimSpace(p.Title)) + "\x00" + strings.ToLower(strings.TrimSpace(p.Company))
}

func locationsMatch(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if strings.EqualFold(a, UnknownLocation) || strings.EqualFold(b, UnknownLocation) {
		return true
	}
	return strings.EqualFold(a, b)
}

// disjointSet keeps the smallest index as the root of each set so that roots
// are the first-seen members.
type disjointSet struct {
	parent []int
}

func newDisjointSet(n int) *disjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &disjointSet{parent: parent}
}

func (d *disjointSet) find(i int) int {
	root := i
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[i] != root {
		next := d.parent[i]
		d.parent[i] = root
		i = next
	}
	return root
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	switch {
	case ra == rb:
		return
	case ra < rb:
		d.parent[rb] = ra
	default:
		d.parent[ra] = rb
	}
}
