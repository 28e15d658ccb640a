// Package laplacian builds periodic finite-difference operators.
//
//   - [Laplacian]: second-order central Laplacian on a 1D or 2D periodic grid
//   - [DenseLaplacian]: the same operator in dense storage, for small grids
//   - [Gradient]: central first-derivative operators, one per axis
//
// 2D operators are Kronecker sums of 1D operators, L = I_y ⊗ L_x + L_y ⊗ I_x,
// acting on fields flattened with x the fastest-varying index.
package laplacian
