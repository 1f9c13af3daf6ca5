// Package tomlproject is the reference pkg/script.Project implementation
// cmd/gmlc uses: a project.toml manifest listing objects, scripts, events,
// and rooms, each event/script/room-creation body stored in a sibling .gml
// file (§6 "[EXPANSION] internal/stdlib/tomlproject ... loading a
// project.toml + sibling .gml source files via github.com/BurntSushi/toml;
// deliberately outside pkg/script so the core stays host-agnostic").
package tomlproject

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/pkg/script"
)

type objectSpec struct {
	Name       string `toml:"name"`
	Persistent bool   `toml:"persistent"`
}

type scriptSpec struct {
	Name   string   `toml:"name"`
	Params []string `toml:"params"`
	File   string   `toml:"file"`
}

type eventSpec struct {
	Object    string `toml:"object"`
	EventType string `toml:"event_type"`
	EventKind int    `toml:"event_kind"`
	File      string `toml:"file"`
}

type instanceSpec struct {
	ID           uint32  `toml:"id"`
	Object       string  `toml:"object"`
	X            float64 `toml:"x"`
	Y            float64 `toml:"y"`
	CreationFile string  `toml:"creation_file"`
}

type roomSpec struct {
	ID           int            `toml:"id"`
	CreationFile string         `toml:"creation_file"`
	Instances    []instanceSpec `toml:"instances"`
}

type manifest struct {
	Objects []objectSpec `toml:"objects"`
	Scripts []scriptSpec `toml:"scripts"`
	Events  []eventSpec  `toml:"events"`
	Rooms   []roomSpec   `toml:"rooms"`
}

// Project is a manifest loaded from disk, ready to hand to script.Build.
type Project struct {
	in      *symbol.Interner
	objects []script.ObjectDecl
	scripts []script.ScriptDecl
	events  []script.EventDecl
	rooms   []script.RoomDecl
}

// Load reads path as a TOML manifest and every .gml file it references,
// relative to path's directory.
func Load(path string) (*Project, error) {
	var m manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("tomlproject: decode %s: %w", path, err)
	}
	dir := filepath.Dir(path)

	p := &Project{in: symbol.NewInterner()}

	for _, o := range m.Objects {
		p.objects = append(p.objects, script.ObjectDecl{Name: o.Name, Persistent: o.Persistent})
	}

	for _, s := range m.Scripts {
		src, err := readSource(dir, s.File)
		if err != nil {
			return nil, err
		}
		p.scripts = append(p.scripts, script.ScriptDecl{Name: s.Name, Params: s.Params, Source: src})
	}

	for _, e := range m.Events {
		src, err := readSource(dir, e.File)
		if err != nil {
			return nil, err
		}
		p.events = append(p.events, script.EventDecl{
			Object: e.Object, EventType: e.EventType, EventKind: e.EventKind, Source: src,
		})
	}

	for _, r := range m.Rooms {
		rd := script.RoomDecl{ID: r.ID}
		if r.CreationFile != "" {
			src, err := readSource(dir, r.CreationFile)
			if err != nil {
				return nil, err
			}
			rd.CreationSource = src
		}
		for _, inst := range r.Instances {
			id := script.RoomInstanceDecl{ID: inst.ID, ObjectName: inst.Object, X: inst.X, Y: inst.Y}
			if inst.CreationFile != "" {
				src, err := readSource(dir, inst.CreationFile)
				if err != nil {
					return nil, err
				}
				id.CreationSource = src
			}
			rd.Instances = append(rd.Instances, id)
		}
		p.rooms = append(p.rooms, rd)
	}

	return p, nil
}

func readSource(dir, name string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("tomlproject: read %s: %w", name, err)
	}
	return string(b), nil
}

func (p *Project) Interner() *symbol.Interner    { return p.in }
func (p *Project) Objects() []script.ObjectDecl  { return p.objects }
func (p *Project) Scripts() []script.ScriptDecl  { return p.scripts }
func (p *Project) Events() []script.EventDecl    { return p.events }
func (p *Project) Rooms() []script.RoomDecl      { return p.rooms }
