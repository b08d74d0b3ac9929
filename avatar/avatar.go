// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package avatar implements skeleton definitions.
package avatar

import (
	"errors"

	"github.com/wellplay/engine/linear"
)

const prefix = "avatar: "

// Avatar defines a skeleton: an ordered list of named
// joints together with their inverse bind matrices.
// An Avatar is immutable once created, so it can be
// shared by any number of render components.
type Avatar struct {
	name   string
	joints []joint
	// Only store inverse bind matrices that
	// are not the zero/identity matrix.
	ibm []linear.M4
}

// joint defines an avatar's joint.
type joint struct {
	name   string
	jm     linear.M4
	ibm    int
	parent int
}

// Joint describes a single joint in an avatar.
// A joint hierarchy is defined by setting the Parent
// field to refer to another Joint's index within the
// slice presented to New.
// Joint.Parent can be set to -1 or less to indicate
// that the joint has no parent.
type Joint struct {
	Name   string
	JM     linear.M4
	IBM    linear.M4
	Parent int
}

var ident = func() (m linear.M4) { m.I(); return }()

// identEps is how far an IBM can be from the identity and
// still not be stored.
// Matrices read from asset files are rarely exact.
const identEps = 1e-6

// New creates a new avatar from a joint hierarchy.
// The order of joints is preserved: joint i of the
// avatar is joints[i].
func New(name string, joints []Joint) (*Avatar, error) {
	n := len(joints)
	if n == 0 {
		return nil, errors.New(prefix + "[]Joint length is 0")
	}

	js := make([]joint, 0, n)
	var ibm []linear.M4
	var zero linear.M4

	for i := range joints {
		pnt := joints[i].Parent
		switch {
		case pnt >= n:
			return nil, errors.New(prefix + "Joint.Parent out of bounds")
		case pnt == i:
			return nil, errors.New(prefix + "Joint.Parent refers to itself")
		case pnt < 0:
			pnt = -1
		}

		iibm := -1
		if m := &joints[i].IBM; *m != zero && !m.Near(&ident, identEps) {
			iibm = len(ibm)
			ibm = append(ibm, *m)
		}

		js = append(js, joint{
			name:   joints[i].Name,
			jm:     joints[i].JM,
			ibm:    iibm,
			parent: pnt,
		})
	}

	// Reject parent cycles (e.g., 0 -> 1 -> 0).
	for i := range js {
		steps := 0
		for p := js[i].parent; p >= 0; p = js[p].parent {
			if steps++; steps > n {
				return nil, errors.New(prefix + "Joint.Parent forms a cycle")
			}
		}
	}

	return &Avatar{name, js, ibm}, nil
}

// Name returns the name of the avatar.
func (a *Avatar) Name() string { return a.name }

// Len returns the number of joints.
func (a *Avatar) Len() int { return len(a.joints) }

// JointName returns the name of joint i.
func (a *Avatar) JointName(i int) string { return a.joints[i].name }

// Parent returns the index of joint i's parent, or -1.
func (a *Avatar) Parent(i int) int { return a.joints[i].parent }

// JM returns the local joint matrix of joint i.
func (a *Avatar) JM(i int) *linear.M4 { return &a.joints[i].jm }

// IBM returns the inverse bind matrix of joint i.
// The returned matrix must not be modified.
func (a *Avatar) IBM(i int) *linear.M4 {
	if x := a.joints[i].ibm; x >= 0 {
		return &a.ibm[x]
	}
	return &ident
}

// Index returns the index of the first joint named name,
// or -1 if there is none.
func (a *Avatar) Index(name string) int {
	for i := range a.joints {
		if a.joints[i].name == name {
			return i
		}
	}
	return -1
}
