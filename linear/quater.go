// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import (
	"github.com/chewxy/math32"
)

// Q is a quaternion of float32.
type Q struct {
	V V3
	R float32
}

// I makes q an identity quaternion.
func (q *Q) I() { *q = Q{R: 1} }

// Norm sets q to contain p normalized.
// The zero quaternion normalizes to the identity.
func (q *Q) Norm(p *Q) {
	l := math32.Sqrt(p.V.Dot(&p.V) + p.R*p.R)
	if l == 0 {
		q.I()
		return
	}
	q.V.Scale(1/l, &p.V)
	q.R = p.R / l
}
