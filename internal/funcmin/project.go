package funcmin

import "gonum.org/v1/gonum/floats"

// Project removes from x, block by block, the component that would change
// the block's sum: each block has its mean subtracted. Projecting twice
// is the same as projecting once. It panics if layout does not cover x.
func Project(x []float64, layout []int) {
	if err := ValidateLayout(len(x), layout); err != nil {
		panic(err)
	}
	index := 0
	for _, n := range layout {
		block := x[index : index+n]
		floats.AddConst(-floats.Sum(block)/float64(n), block)
		index += n
	}
}
