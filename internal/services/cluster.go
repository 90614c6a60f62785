package services

import (
  "math"
  "sort"
)

// Cluster labels are index-aligned with the input vectors. NoiseLabel marks
// points that belong to no sufficiently dense group.
const NoiseLabel = -1

const (
  labelUnclassified = -2

  DefaultClusterEpsilon = 0.75
  DefaultClusterMinSize = 3
  DefaultClusterTopK    = 3
)

func euclideanDistance(a, b []float32) float64 {
  n := len(a)
  if len(b) < n {
    n = len(b)
  }
  var sum float64
  for i := 0; i < n; i++ {
    d := float64(a[i]) - float64(b[i])
    sum += d * d
  }
  return math.Sqrt(sum)
}

func regionQuery(vecs [][]float32, idx int, eps float64) []int {
  neighbors := make([]int, 0, 8)
  for i := range vecs {
    if euclideanDistance(vecs[idx], vecs[i]) <= eps {
      neighbors = append(neighbors, i)
    }
  }
  return neighbors
}

// ClusterVectors runs density-based clustering (DBSCAN, Euclidean distance)
// over the given vectors and returns one label per input index. A point is a
// core point when at least minPoints vectors (itself included) sit within eps.
// Groups that end up smaller than minPoints fold into noise. The scan order is
// the input order, so identical vectors and identical parameters produce
// identical labels.
func ClusterVectors(vecs [][]float32, eps float64, minPoints int) []int {
  labels := make([]int, len(vecs))
  for i := range labels {
    labels[i] = labelUnclassified
  }
  if len(vecs) == 0 {
    return labels
  }
  if minPoints < 1 {
    minPoints = 1
  }

  nextLabel := 0
  for i := range vecs {
    if labels[i] != labelUnclassified {
      continue
    }
    neighbors := regionQuery(vecs, i, eps)
    if len(neighbors) < minPoints {
      labels[i] = NoiseLabel
      continue
    }

    label := nextLabel
    nextLabel++
    labels[i] = label

    queue := append([]int(nil), neighbors...)
    for head := 0; head < len(queue); head++ {
      j := queue[head]
      if labels[j] == NoiseLabel {
        // Border point reached from a core point.
        labels[j] = label
      }
      if labels[j] != labelUnclassified {
        continue
      }
      labels[j] = label
      jNeighbors := regionQuery(vecs, j, eps)
      if len(jNeighbors) >= minPoints {
        queue = append(queue, jNeighbors...)
      }
    }
  }

  foldSmallGroups(labels, minPoints)
  return labels
}

func foldSmallGroups(labels []int, minPoints int) {
  counts := make(map[int]int)
  for _, l := range labels {
    if l >= 0 {
      counts[l]++
    }
  }
  for i, l := range labels {
    if l >= 0 && counts[l] < minPoints {
      labels[i] = NoiseLabel
    }
  }
}

// ClusterGroup is one non-noise group for a single round: a label plus the
// input indices that carry it, in ascending index order.
type ClusterGroup struct {
  Label   int
  Members []int
}

// GroupByLabel folds an index-aligned label slice into its non-noise groups.
func GroupByLabel(labels []int) []ClusterGroup {
  byLabel := make(map[int][]int)
  for idx, l := range labels {
    if l == NoiseLabel || l < 0 {
      continue
    }
    byLabel[l] = append(byLabel[l], idx)
  }

  groups := make([]ClusterGroup, 0, len(byLabel))
  for label, members := range byLabel {
    groups = append(groups, ClusterGroup{Label: label, Members: members})
  }
  sort.Slice(groups, func(a, b int) bool { return groups[a].Label < groups[b].Label })
  return groups
}

// RankGroups orders groups by descending member count and keeps at most topK.
// Ties break on the lowest member index, which is stable within one round.
// Groups beyond topK are simply not selected; their submissions stay live.
func RankGroups(groups []ClusterGroup, topK int) []ClusterGroup {
  ranked := append([]ClusterGroup(nil), groups...)
  sort.SliceStable(ranked, func(a, b int) bool {
    if len(ranked[a].Members) != len(ranked[b].Members) {
      return len(ranked[a].Members) > len(ranked[b].Members)
    }
    return ranked[a].Members[0] < ranked[b].Members[0]
  })
  if topK >= 0 && len(ranked) > topK {
    ranked = ranked[:topK]
  }
  return ranked
}
