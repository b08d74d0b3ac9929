// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package render implements renderable components.
package render

import (
	"github.com/wellplay/engine/avatar"
	"github.com/wellplay/engine/mesh"
	"github.com/wellplay/engine/object"
)

// BaseState is the persisted state shared by every
// renderable component.
type BaseState struct {
	Visible     bool   `json:"visible" toml:"visible" yaml:"visible"`
	CastShadows bool   `json:"castShadows" toml:"cast_shadows" yaml:"castShadows"`
	Layer       uint32 `json:"layer" toml:"layer" yaml:"layer"`
}

// Render is the embeddable base of renderable components.
type Render struct {
	object.Base
	BaseState
}

// DefaultState returns the state of a newly created
// renderable component.
func DefaultState() BaseState { return BaseState{Visible: true, CastShadows: true} }

// Resources is the resource-lookup collaborator used to
// restore components from their persisted form.
// Lookups of unknown names must fail rather than return
// nil.
type Resources interface {
	GetMesh(name string) (*mesh.Mesh, error)
	GetAvatar(name string) (*avatar.Avatar, error)
}

// Releaser is implemented by Resources that count
// references and want them returned.
type Releaser interface {
	ReleaseMesh(name string)
	ReleaseAvatar(name string)
}
