package exam

import "math/rand"

// SelectQuestions derives the question set a new attempt will present.
// If the exam caps question count below the bank size, a uniform random
// subset of exactly that size is drawn without replacement; otherwise the
// whole bank is returned. Pure over its inputs plus rng.
func SelectQuestions(bank []Question, e Exam, rng *rand.Rand) ([]Question, error) {
	if len(bank) == 0 {
		return nil, ErrNoQuestionsAvailable
	}
	n := e.NumQuestions
	if n <= 0 || n >= len(bank) {
		out := make([]Question, len(bank))
		copy(out, bank)
		return out, nil
	}
	out := make([]Question, len(bank))
	copy(out, bank)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:n], nil
}

func questionIDs(qs []Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
