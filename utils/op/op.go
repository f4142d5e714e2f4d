// Package op provides extended Gorgonia graph operations.
//
// Clamp is adapted from aunum/gold on GitHub
package op

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// Clamp clamps the value of a node element-wise to the interval
// [min, max]. Gradients pass through unclamped elements only.
func Clamp(value *G.Node, min, max float64) (retVal *G.Node, err error) {
	if min > max {
		return nil, fmt.Errorf("clamp: min %v > max %v", min, max)
	}

	minNode := G.NewConstant(min, G.WithName("clamp_min"))
	maxNode := G.NewConstant(max, G.WithName("clamp_max"))

	// Elements below the minimum
	minMask, err := G.Lt(value, minNode, true)
	if err != nil {
		return nil, err
	}
	minVal, err := G.HadamardProd(minNode, minMask)
	if err != nil {
		return nil, err
	}

	// Elements within [min, max]
	isMaskGte, err := G.Gte(value, minNode, true)
	if err != nil {
		return nil, err
	}
	isMaskLte, err := G.Lte(value, maxNode, true)
	if err != nil {
		return nil, err
	}
	isMask, err := G.HadamardProd(isMaskGte, isMaskLte)
	if err != nil {
		return nil, err
	}
	isVal, err := G.HadamardProd(value, isMask)
	if err != nil {
		return nil, err
	}

	// Elements above the maximum
	maxMask, err := G.Gt(value, maxNode, true)
	if err != nil {
		return nil, err
	}
	maxVal, err := G.HadamardProd(maxNode, maxMask)
	if err != nil {
		return nil, err
	}
	return G.ReduceAdd(G.Nodes{minVal, isVal, maxVal})
}

// GaussianLogPdf calculates the log density of x under a diagonal
// Gaussian with mean mean and log standard deviation logStd.
//
// All arguments should be matrices of the same shape m x n, where m is
// the batch size and n the dimension of the distribution. The result
// is a vector of length m, the log density summed over the n
// dimensions of each row.
func GaussianLogPdf(mean, logStd, x *G.Node) (*G.Node, error) {
	graph := mean.Graph()
	if graph != logStd.Graph() || graph != x.Graph() {
		return nil, fmt.Errorf("gaussianlogpdf: all nodes must share the " +
			"same graph")
	}

	std, err := G.Exp(logStd)
	if err != nil {
		return nil, fmt.Errorf("gaussianlogpdf: %w", err)
	}

	// (x - μ) / σ
	z, err := G.Sub(x, mean)
	if err != nil {
		return nil, fmt.Errorf("gaussianlogpdf: %w", err)
	}
	if z, err = G.HadamardDiv(z, std); err != nil {
		return nil, fmt.Errorf("gaussianlogpdf: %w", err)
	}

	// -0.5 * z² - log(σ) - log(√(2π))
	negativeHalf := G.NewConstant(-0.5)
	logSqrt2Pi := G.NewConstant(0.5 * math.Log(2*math.Pi))
	logProb := G.Must(G.Square(z))
	logProb = G.Must(G.HadamardProd(negativeHalf, logProb))
	logProb = G.Must(G.Sub(logProb, logStd))
	logProb = G.Must(G.Sub(logProb, logSqrt2Pi))

	if logProb, err = G.Sum(logProb, 1); err != nil {
		return nil, fmt.Errorf("gaussianlogpdf: %w", err)
	}
	return logProb, nil
}

// TanhLogDetJacobian calculates log|det(∂tanh(u)/∂u)| for a batch of
// pre-squash samples u of shape m x n, summed over the n dimensions of
// each row. The result is a vector of length m.
//
// Rather than log(1 - tanh²(u)), which underflows for large |u|, the
// equivalent 2 * (log(2) - u - softplus(-2u)) is used.
func TanhLogDetJacobian(u *G.Node) (*G.Node, error) {
	two := G.NewConstant(2.0)
	negTwo := G.NewConstant(-2.0)
	log2 := G.NewConstant(math.Ln2)

	softplus, err := G.Softplus(G.Must(G.HadamardProd(negTwo, u)))
	if err != nil {
		return nil, fmt.Errorf("tanhlogdetjacobian: %w", err)
	}

	correction := G.Must(G.Sub(log2, u))
	correction = G.Must(G.Sub(correction, softplus))
	correction = G.Must(G.HadamardProd(two, correction))

	if correction, err = G.Sum(correction, 1); err != nil {
		return nil, fmt.Errorf("tanhlogdetjacobian: %w", err)
	}
	return correction, nil
}
