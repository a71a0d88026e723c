package analytics

import (
	"math"
	"math/rand/v2"
)

// eulerGamma постоянная Эйлера-Маскерони для c(n)
const eulerGamma = 0.5772156649015329

// isolationNode узел дерева изоляции. Лист не имеет потомков.
type isolationNode struct {
	splitValue float64
	left       *isolationNode
	right      *isolationNode
	size       int
}

func (n *isolationNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// isolationForest ансамбль деревьев изоляции над одномерными значениями
type isolationForest struct {
	trees      []*isolationNode
	sampleSize int
}

// fitForest строит лес на values. Все случайные решения берутся из rng,
// поэтому при одинаковом seed результат воспроизводим.
func fitForest(values []float64, numTrees, maxSamples int, rng *rand.Rand) *isolationForest {
	sampleSize := min(maxSamples, len(values))
	maxDepth := int(math.Ceil(math.Log2(float64(max(sampleSize, 2)))))

	forest := &isolationForest{
		trees:      make([]*isolationNode, 0, numTrees),
		sampleSize: sampleSize,
	}

	for i := 0; i < numTrees; i++ {
		sample := subsample(values, sampleSize, rng)
		forest.trees = append(forest.trees, buildTree(sample, 0, maxDepth, rng))
	}

	return forest
}

// subsample выборка без возвращения (частичный Fisher-Yates по копии)
func subsample(values []float64, size int, rng *rand.Rand) []float64 {
	pool := make([]float64, len(values))
	copy(pool, values)

	for i := 0; i < size; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:size]
}

func buildTree(data []float64, depth, maxDepth int, rng *rand.Rand) *isolationNode {
	if len(data) <= 1 || depth >= maxDepth {
		return &isolationNode{size: len(data)}
	}

	minVal, maxVal := minMax(data)
	if minVal == maxVal {
		return &isolationNode{size: len(data)}
	}

	splitValue := minVal + rng.Float64()*(maxVal-minVal)

	var left, right []float64
	for _, v := range data {
		if v < splitValue {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}

	return &isolationNode{
		splitValue: splitValue,
		left:       buildTree(left, depth+1, maxDepth, rng),
		right:      buildTree(right, depth+1, maxDepth, rng),
		size:       len(data),
	}
}

// score аномальность значения в (0, 1]: чем ближе к 1, тем короче средний
// путь изоляции и тем вероятнее выброс
func (f *isolationForest) score(value float64) float64 {
	norm := averagePathLength(f.sampleSize)
	if len(f.trees) == 0 || norm == 0 {
		return 0.5
	}

	total := 0.0
	for _, tree := range f.trees {
		total += pathLength(tree, value, 0)
	}
	avgPath := total / float64(len(f.trees))

	return math.Pow(2, -avgPath/norm)
}

func pathLength(node *isolationNode, value float64, depth int) float64 {
	if node.isLeaf() {
		return float64(depth) + averagePathLength(node.size)
	}

	if value < node.splitValue {
		return pathLength(node.left, value, depth+1)
	}
	return pathLength(node.right, value, depth+1)
}

// averagePathLength c(n): средняя длина неуспешного поиска в BST из n элементов
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
