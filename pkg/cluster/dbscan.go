package cluster

// Labels assigned by DBSCAN. Cluster labels start at 1.
const (
	Noise     = 0
	unvisited = -1
)

// DBSCAN is a density based clusterer over any element type.
//
// An element is a core point when at least MinPts elements (itself included)
// lie within Eps of it. Clusters grow breadth first from core points; border
// points join the first cluster that reaches them. Elements first marked as
// noise may still be absorbed by a later cluster.
type DBSCAN[T any] struct {
	Eps      float64
	MinPts   int
	Distance func(a, b T) float64
}

// DBSCANResult holds the label of every input element and the member indices
// of every cluster, in discovery order.
type DBSCANResult struct {
	Labels   []int
	Clusters [][]int
}

// Cluster labels items. Seeding follows the order of items.
func (d DBSCAN[T]) Cluster(items []T) DBSCANResult {
	labels := make([]int, len(items))
	for i := range labels {
		labels[i] = unvisited
	}

	clusterID := 0
	for i := range items {
		if labels[i] != unvisited {
			continue
		}

		neighbors := d.neighbors(items, i)
		if len(neighbors) < d.MinPts {
			labels[i] = Noise
			continue
		}

		clusterID++
		labels[i] = clusterID

		queue := make([]int, 0, len(neighbors))
		queue = append(queue, neighbors...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == Noise {
				labels[j] = clusterID
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = clusterID

			next := d.neighbors(items, j)
			if len(next) >= d.MinPts {
				for _, k := range next {
					if labels[k] == unvisited || labels[k] == Noise {
						queue = append(queue, k)
					}
				}
			}
		}
	}

	clusters := make([][]int, clusterID)
	for i, l := range labels {
		if l > 0 {
			clusters[l-1] = append(clusters[l-1], i)
		}
	}
	return DBSCANResult{Labels: labels, Clusters: clusters}
}

// Groups runs Cluster and returns the members of every cluster. Noise is
// dropped.
func (d DBSCAN[T]) Groups(items []T) [][]T {
	res := d.Cluster(items)
	out := make([][]T, 0, len(res.Clusters))
	for _, idx := range res.Clusters {
		group := make([]T, len(idx))
		for n, i := range idx {
			group[n] = items[i]
		}
		out = append(out, group)
	}
	return out
}

// neighbors returns the indices within Eps of items[i], i included.
func (d DBSCAN[T]) neighbors(items []T, i int) []int {
	var out []int
	for j := range items {
		if j == i || d.Distance(items[i], items[j]) <= d.Eps {
			out = append(out, j)
		}
	}
	return out
}
