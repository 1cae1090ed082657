package textutil

// SimilarityRatio scores how alike two strings are on a 0..1 scale using the
// Ratcliff/Obershelp measure: twice the number of matching runes divided by
// the combined length. Matching runes are found by taking the longest common
// block and recursing on both sides of it. Two empty strings score 1.
func SimilarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	type span struct{ alo, ahi, blo, bhi int }
	matched := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		i, j, size := longestMatch(a, b, s.alo, s.ahi, s.blo, s.bhi)
		if size == 0 {
			continue
		}
		matched += size
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+size < s.ahi && j+size < s.bhi {
			queue = append(queue, span{i + size, s.ahi, j + size, s.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest common block of a[alo:ahi] and b[blo:bhi].
// Among equally long blocks the one starting earliest in a wins, then the one
// starting earliest in b.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (int, int, int) {
	bestI, bestJ, bestSize := alo, blo, 0
	prev := make([]int, bhi-blo+1)
	curr := make([]int, bhi-blo+1)
	for i := alo; i < ahi; i++ {
		for j := blo; j < bhi; j++ {
			k := j - blo + 1
			if a[i] != b[j] {
				curr[k] = 0
				continue
			}
			curr[k] = prev[k-1] + 1
			if curr[k] > bestSize {
				bestSize = curr[k]
				bestI = i - bestSize + 1
				bestJ = j - bestSize + 1
			}
		}
		prev, curr = curr, prev
	}
	return bestI, bestJ, bestSize
}
