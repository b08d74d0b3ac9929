// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Skinbench measures palette computation over many skinned
// entities sharing one mesh and one avatar.
//
// Profiling:
//
//	go build ./cmd/skinbench
//	./skinbench -entities 5000 -frames 600
//	go tool pprof -http=":8000" ./skinbench cpu.pprof
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pkg/profile"

	"github.com/wellplay/engine/avatar"
	"github.com/wellplay/engine/config"
	"github.com/wellplay/engine/linear"
	"github.com/wellplay/engine/mesh"
	"github.com/wellplay/engine/object"
	"github.com/wellplay/engine/render"
	"github.com/wellplay/engine/scene"
)

func main() {
	configFile := flag.String("config", "", "Path to a TOML config file")
	entities := flag.Int("entities", 0, "Number of skinned entities (default: 1000)")
	frames := flag.Int("frames", 0, "Number of frames to run (default: 1)")
	joints := flag.Int("joints", 32, "Joints per avatar")
	logLevel := flag.String("log", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{Entities: *entities, Frames: *frames, LogLevel: *logLevel})
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	switch cfg.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	if err := run(&cfg, *joints); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRig creates an avatar whose joints form a chain, each
// one unit above its parent, and a mesh with one vertex
// per joint.
func newRig(n int) (*mesh.Mesh, *avatar.Avatar, error) {
	js := make([]avatar.Joint, n)
	d := mesh.Data{
		Name:      "Rig",
		Positions: make([][3]float32, n),
		Joints:    make([][4]uint16, n),
		Weights:   make([][4]float32, n),
	}
	for i := range js {
		js[i].Name = "Joint" + strconv.Itoa(i)
		js[i].Parent = i - 1
		js[i].JM.Translate(0, 1, 0)
		js[i].IBM.Translate(0, -float32(i), 0)
		d.Positions[i] = [3]float32{0, float32(i), 0}
		d.Joints[i] = [4]uint16{uint16(i)}
		d.Weights[i] = [4]float32{1}
	}
	a, err := avatar.New("Rig", js)
	if err != nil {
		return nil, nil, err
	}
	m, err := mesh.New(&d)
	if err != nil {
		return nil, nil, err
	}
	return m, a, nil
}

// spawn creates an entity in s whose joint objects mirror
// the avatar hierarchy.
func spawn(s *scene.Scene, m *mesh.Mesh, a *avatar.Avatar) (*object.GameObject, error) {
	root := s.NewGameObject("Entity")
	parent := root
	for i := range a.Len() {
		j := s.NewGameObject(a.JointName(i))
		j.SetLocal(a.JM(i))
		if err := parent.AddChild(j); err != nil {
			return nil, err
		}
		parent = j
	}
	body := s.NewGameObject("Body")
	if err := root.AddChild(body); err != nil {
		return nil, err
	}
	sm := render.NewSkinMesh()
	body.AddComponent(sm)
	if err := sm.SetMesh(m); err != nil {
		return nil, err
	}
	if err := sm.SetAvatar(a); err != nil {
		return nil, err
	}
	s.AddRootGameObject(root)
	return root, nil
}

func run(cfg *config.Config, joints int) error {
	m, a, err := newRig(max(joints, 1))
	if err != nil {
		return err
	}

	mgr := scene.NewManager()
	s := mgr.Create("Bench")
	defer mgr.Release(s)
	mgr.Activate(s)

	start := time.Now()
	ents := make([]*object.GameObject, cfg.Entities)
	for i := range ents {
		if ents[i], err = spawn(s, m, a); err != nil {
			return err
		}
	}
	if err := s.Init(false); err != nil {
		return err
	}
	slog.Info("skinbench: spawned", "entities", len(ents), "joints", a.Len(), "took", time.Since(start))

	dt := cfg.FrameTime()
	var xform linear.M4
	start = time.Now()
	for f := range cfg.Frames {
		for i, e := range ents {
			xform.Translate(float32(i), float32(f)*0.01, 0)
			e.SetLocal(&xform)
		}
		s.Update(dt)
	}
	el := time.Since(start)
	n := cfg.Frames * len(ents)
	fmt.Printf("%d frames, %d entities, %d joints: %v (%v/entity-frame)\n",
		cfg.Frames, len(ents), a.Len(), el, el/time.Duration(max(n, 1)))
	return nil
}
