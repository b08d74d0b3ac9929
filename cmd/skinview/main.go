// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Skinview loads a saved scene, runs it for a number of
// frames and prints the skinning palette of every skinned
// mesh.
//
// Usage:
//
//	skinview [-config engine.toml] [-scene level.json] [-frames N] [-editor] [-watch]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/wellplay/engine/archive"
	"github.com/wellplay/engine/config"
	"github.com/wellplay/engine/object"
	"github.com/wellplay/engine/render"
	"github.com/wellplay/engine/resource"
	"github.com/wellplay/engine/scene"
)

func main() {
	configFile := flag.String("config", "", "Path to a TOML config file")
	resDir := flag.String("res", "", "Resource directory (default: assets)")
	scenePath := flag.String("scene", "", "Scene file (.json, .toml or .yaml)")
	frames := flag.Int("frames", 0, "Number of frames to run (default: 1)")
	logLevel := flag.String("log", "", "Log level (debug, info, warn, error)")
	editor := flag.Bool("editor", false, "Use editor hooks instead of runtime ones")
	watch := flag.Bool("watch", false, "Reload changed resource files")
	save := flag.String("save", "", "Write the scene to this file after running")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		ResourceDir: *resDir,
		Scene:       *scenePath,
		Frames:      *frames,
		LogLevel:    *logLevel,
		Editor:      *editor,
		Watch:       *watch,
	})
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	if cfg.Scene == "" {
		fmt.Fprintln(os.Stderr, "skinview: no scene file (use -scene or the config file)")
		os.Exit(2)
	}
	if err := run(&cfg, *save); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, save string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res := resource.New(cfg.ResourceDir)
	if cfg.Watch {
		go func() {
			if err := res.Watch(ctx); err != nil {
				slog.Error("skinview: watch", "err", err)
			}
		}()
	}

	mgr := scene.NewManager()
	s := mgr.Create(cfg.Scene)
	defer mgr.Release(s)
	if err := archive.ReadFile(cfg.Scene, s, res); err != nil {
		// Partially restored scenes still run.
		slog.Warn("skinview: restore", "err", err)
	}
	mgr.Activate(s)
	if err := s.Init(cfg.Editor); err != nil {
		slog.Warn("skinview: init", "err", err)
	}

	dt := cfg.FrameTime()
	for i := 0; i < cfg.Frames && ctx.Err() == nil; i++ {
		if cfg.Editor {
			s.EditorUpdate()
		} else {
			s.Update(dt)
		}
	}

	var buf []byte
	for _, r := range s.RootGameObjects() {
		r.Walk(func(o *object.GameObject) bool {
			for _, c := range o.Components() {
				sm, ok := c.(*render.SkinMesh)
				if !ok {
					continue
				}
				buf = sm.AppendPalette(buf[:0])
				fmt.Printf("%s: stage=%v bones=%d palette=%dB\n", o.Name(), sm.Stage(), len(sm.Bones()), len(buf))
				for i, m := range sm.Palette() {
					fmt.Printf("\t%-16s %v\n", sm.Avatar().JointName(i), m)
				}
			}
			return true
		})
	}

	if save != "" {
		return archive.WriteFile(save, s)
	}
	return nil
}
