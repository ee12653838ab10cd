package embedding

import "github.com/hyperjump/medqa/pkg/utils"

// MeanPool averages the token vectors of a [seq, dims] hidden state over positions where
// mask is 1, then L2-normalizes the result. This is sentence-transformers' mean pooling.
func MeanPool(hidden []float32, mask []int64, seq, dims int) []float32 {
	out := make([]float32, dims)
	var count float32
	for t := 0; t < seq && t < len(mask); t++ {
		if mask[t] == 0 {
			continue
		}
		row := hidden[t*dims : (t+1)*dims]
		for d, v := range row {
			out[d] += v
		}
		count++
	}
	if count > 0 {
		for d := range out {
			out[d] /= count
		}
	}
	utils.NormalizeL2(out)
	return out
}
