package photo

import (
	"sort"

	"universitas/internal/domain/entity"
	"universitas/internal/infra/imageproc"
)

const (
	// dupeCandidates is how many trigram matches the second pass compares.
	dupeCandidates = 30
	// dupeLimit is the default number of duplicates returned.
	dupeLimit = 3
	// maxHashDistance is the largest median hash distance of a duplicate.
	maxHashDistance = 8
)

// FilterDupes compares the perceptual hashes of candidates with master and
// returns the closest matches, best first. The distance of a candidate is
// the median of its three smallest per-kind Hamming distances. Candidates
// much further away than the best one are dropped.
func FilterDupes(candidates []*entity.ImageFile, master map[string]string, limit int) []*entity.ImageFile {
	if limit <= 0 {
		limit = dupeLimit
	}
	type scored struct {
		img  *entity.ImageFile
		diff float64
	}
	var kept []scored
	for _, c := range candidates {
		var diffs []int
		for kind, h := range c.ImageHashes {
			m, ok := master[kind]
			if !ok {
				continue
			}
			d, err := imageproc.Diff(h, m)
			if err != nil {
				continue
			}
			diffs = append(diffs, d)
		}
		if len(diffs) == 0 {
			continue
		}
		sort.Ints(diffs)
		if len(diffs) > 3 {
			diffs = diffs[:3]
		}
		if d := median(diffs); d < maxHashDistance {
			kept = append(kept, scored{img: c, diff: d})
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].diff < kept[j].diff })
	best := kept[0].diff + 0.1
	out := make([]*entity.ImageFile, 0, limit)
	for _, k := range kept {
		if k.diff/best >= 1.5 || len(out) == limit {
			break
		}
		out = append(out, k.img)
	}
	return out
}

// median of sorted values.
func median(sorted []int) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
