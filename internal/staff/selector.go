package staff

import "sort"

// DefaultMinConfidence - порог, ниже которого селектор не принимает решение.
const DefaultMinConfidence = 90

// Scored - кандидат с вычисленным баллом.
type Scored struct {
	Candidate
	Score int `json:"score"`
}

// Rank оценивает всех пригодных кандидатов и сортирует по убыванию балла.
// При равенстве сохраняется порядок обнаружения.
func Rank(cands []Candidate, currentHost string) []Scored {
	out := make([]Scored, 0, len(cands))
	for _, c := range cands {
		if !Usable(c.Href) {
			continue
		}
		out = append(out, Scored{Candidate: c, Score: Score(c, currentHost)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// SelectBest возвращает кандидата с максимальным баллом, если он не ниже minConfidence.
func SelectBest(cands []Candidate, currentHost string, minConfidence int) (Candidate, bool) {
	return selectBy(cands, minConfidence, func(c Candidate) int {
		return Score(c, currentHost)
	})
}

// SelectByHint работает как SelectBest, но учитывает подсказку ассистента.
func SelectByHint(cands []Candidate, currentHost, hint string, minConfidence int) (Candidate, bool) {
	return selectBy(cands, minConfidence, func(c Candidate) int {
		return ScoreWithHint(c, currentHost, hint)
	})
}

// SelectTiered сначала смотрит только видимые ссылки, затем - полный список href документа.
// exhaustive вызывается лениво, только если первый проход ничего не дал.
func SelectTiered(visible []Candidate, exhaustive func() []Candidate, currentHost string, minConfidence int) (Candidate, bool) {
	if best, ok := SelectBest(visible, currentHost, minConfidence); ok {
		return best, true
	}
	if exhaustive == nil {
		return Candidate{}, false
	}
	return SelectBest(exhaustive(), currentHost, minConfidence)
}

// ChildMinScore - порог для пунктов раскрытого подменю, оцениваемых только по подписи.
const ChildMinScore = 60

// BestChild выбирает самый "персональный" пункт подменю по одной только подписи.
func BestChild(cands []Candidate) (Candidate, bool) {
	return selectBy(cands, ChildMinScore, func(c Candidate) int {
		if IsCareerOrExcluded(c.Label) || IsCareerOrExcluded(c.Href) {
			return -CareerPenalty
		}
		return LabelScore(c.Label)
	})
}

func selectBy(cands []Candidate, minConfidence int, score func(Candidate) int) (Candidate, bool) {
	var (
		best      Candidate
		bestScore int
		found     bool
	)
	for _, c := range cands {
		if !Usable(c.Href) {
			continue
		}
		s := score(c)
		if !found || s > bestScore {
			best, bestScore, found = c, s, true
		}
	}
	if !found || bestScore < minConfidence {
		return Candidate{}, false
	}
	return best, true
}
