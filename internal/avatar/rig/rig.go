package rig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/banshee-data/posetrack/internal/avatar/l1joints"
	"github.com/banshee-data/posetrack/internal/geom"
	"gopkg.in/yaml.v3"
)

// BoneDef describes one bone at rest. Offset is the translation from the
// parent joint in the parent's rest frame. Rotation is the rest local
// rotation as [w, x, y, z]; omitted means identity.
type BoneDef struct {
	Name     l1joints.HumanBone `yaml:"name"`
	Parent   l1joints.HumanBone `yaml:"parent,omitempty"`
	Offset   [3]float64         `yaml:"offset"`
	Rotation *[4]float64        `yaml:"rotation,omitempty"`
}

// Definition is the YAML document root.
type Definition struct {
	Name     string     `yaml:"name"`
	Humanoid bool       `yaml:"humanoid"`
	Root     [3]float64 `yaml:"root"`
	Bones    []BoneDef  `yaml:"bones"`
}

type bone struct {
	name      l1joints.HumanBone
	parent    l1joints.HumanBone
	hasParent bool
	offset    geom.Vec3
	restLocal geom.Quat
	local     geom.Quat
}

// Rig is a mutable skeleton. It is safe for concurrent use.
type Rig struct {
	mu       sync.RWMutex
	name     string
	humanoid bool
	restRoot geom.Vec3
	rootPos  geom.Vec3
	root     l1joints.HumanBone
	bones    map[l1joints.HumanBone]*bone
	order    []l1joints.HumanBone // parents before children
}

// ErrInvalidRig is wrapped by every definition error.
var ErrInvalidRig = errors.New("invalid rig definition")

// New builds a rig posed at rest.
func New(def Definition) (*Rig, error) {
	r := &Rig{
		name:     def.Name,
		humanoid: def.Humanoid,
		restRoot: geom.Vec3(def.Root),
		rootPos:  geom.Vec3(def.Root),
		bones:    make(map[l1joints.HumanBone]*bone, len(def.Bones)),
	}
	for _, bd := range def.Bones {
		if bd.Name == l1joints.NoBone {
			return nil, fmt.Errorf("%w: bone with empty name", ErrInvalidRig)
		}
		if _, dup := r.bones[bd.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate bone %q", ErrInvalidRig, bd.Name)
		}
		rest := geom.Identity()
		if bd.Rotation != nil {
			q := geom.Quat{W: bd.Rotation[0], V: geom.Vec3{bd.Rotation[1], bd.Rotation[2], bd.Rotation[3]}}
			if q.Len() < geom.Epsilon {
				return nil, fmt.Errorf("%w: bone %q has zero rotation", ErrInvalidRig, bd.Name)
			}
			rest = q.Normalize()
		}
		r.bones[bd.Name] = &bone{
			name:      bd.Name,
			parent:    bd.Parent,
			hasParent: bd.Parent != l1joints.NoBone,
			offset:    geom.Vec3(bd.Offset),
			restLocal: rest,
			local:     rest,
		}
	}

	roots := 0
	for _, b := range r.bones {
		if !b.hasParent {
			roots++
			r.root = b.name
			continue
		}
		if _, ok := r.bones[b.parent]; !ok {
			return nil, fmt.Errorf("%w: bone %q has unknown parent %q", ErrInvalidRig, b.name, b.parent)
		}
	}
	if roots != 1 {
		return nil, fmt.Errorf("%w: expected one root bone, found %d", ErrInvalidRig, roots)
	}

	// Definition order with parents hoisted ahead of children.
	visited := make(map[l1joints.HumanBone]int, len(r.bones))
	var visit func(n l1joints.HumanBone) error
	visit = func(n l1joints.HumanBone) error {
		switch visited[n] {
		case 1:
			return fmt.Errorf("%w: cycle through %q", ErrInvalidRig, n)
		case 2:
			return nil
		}
		visited[n] = 1
		if b := r.bones[n]; b.hasParent {
			if err := visit(b.parent); err != nil {
				return err
			}
		}
		visited[n] = 2
		r.order = append(r.order, n)
		return nil
	}
	for _, bd := range def.Bones {
		if err := visit(bd.Name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Parse decodes a YAML rig definition.
func Parse(data []byte) (*Rig, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse rig YAML: %w", err)
	}
	return New(def)
}

// Load reads a YAML rig definition from path.
func Load(path string) (*Rig, error) {
	clean := filepath.Clean(path)
	switch filepath.Ext(clean) {
	case ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("rig file must have .yaml or .yml extension, got %q", filepath.Ext(clean))
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to read rig file: %w", err)
	}
	return Parse(data)
}

// Marshal encodes def as YAML.
func Marshal(def Definition) ([]byte, error) {
	return yaml.Marshal(def)
}

// Name returns the rig name.
func (r *Rig) Name() string { return r.name }

// Bones lists bone names, parents first.
func (r *Rig) Bones() []l1joints.HumanBone {
	return append([]l1joints.HumanBone(nil), r.order...)
}

// IsHumanoid reports whether the definition declared a humanoid avatar.
func (r *Rig) IsHumanoid() bool { return r.humanoid }

// HasBone reports whether b exists.
func (r *Rig) HasBone(b l1joints.HumanBone) bool {
	_, ok := r.bones[b]
	return ok
}

// Parent returns the parent of b.
func (r *Rig) Parent(b l1joints.HumanBone) (l1joints.HumanBone, bool) {
	bn, ok := r.bones[b]
	if !ok || !bn.hasParent {
		return l1joints.NoBone, false
	}
	return bn.parent, true
}

// RestLocalRotation returns the rest rotation of b relative to its parent.
func (r *Rig) RestLocalRotation(b l1joints.HumanBone) (geom.Quat, bool) {
	bn, ok := r.bones[b]
	if !ok {
		return geom.Identity(), false
	}
	return bn.restLocal, true
}

// LocalRotation returns the current rotation of b relative to its parent.
func (r *Rig) LocalRotation(b l1joints.HumanBone) (geom.Quat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bn, ok := r.bones[b]
	if !ok {
		return geom.Identity(), false
	}
	return bn.local, true
}

// WorldPose returns the world position and rotation of b.
func (r *Rig) WorldPose(b l1joints.HumanBone) (geom.Vec3, geom.Quat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.bones[b]; !ok {
		return geom.Vec3{}, geom.Identity(), false
	}
	p, q := r.world(b)
	return p, q, true
}

func (r *Rig) world(b l1joints.HumanBone) (geom.Vec3, geom.Quat) {
	bn := r.bones[b]
	if !bn.hasParent {
		return r.rootPos, bn.local
	}
	pp, pq := r.world(bn.parent)
	return pp.Add(pq.Rotate(bn.offset)), pq.Mul(bn.local).Normalize()
}

// SetWorldRotation rotates b so its world rotation is q. Children follow.
func (r *Rig) SetWorldRotation(b l1joints.HumanBone, q geom.Quat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bn, ok := r.bones[b]
	if !ok {
		return
	}
	if !bn.hasParent {
		bn.local = q.Normalize()
		return
	}
	_, pq := r.world(bn.parent)
	bn.local = pq.Inverse().Mul(q).Normalize()
}

// SetWorldPosition moves b. Only the root translates freely; other bones
// have their rest offset rewritten, which callers normally avoid.
func (r *Rig) SetWorldPosition(b l1joints.HumanBone, p geom.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bn, ok := r.bones[b]
	if !ok {
		return
	}
	if !bn.hasParent {
		r.rootPos = p
		return
	}
	pp, pq := r.world(bn.parent)
	bn.offset = pq.Inverse().Rotate(p.Sub(pp))
}

// ResetToRest restores every local rotation and the root position.
func (r *Rig) ResetToRest() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bn := range r.bones {
		bn.local = bn.restLocal
	}
	r.rootPos = r.restRoot
}

// Root returns the root bone name.
func (r *Rig) Root() l1joints.HumanBone { return r.root }
