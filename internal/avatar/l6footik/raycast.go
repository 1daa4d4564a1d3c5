package l6footik

import (
	"math"

	"github.com/banshee-data/posetrack/internal/geom"
)

// Hit is a ray intersection with the ground.
type Hit struct {
	Point    geom.Vec3
	Normal   geom.Vec3
	Distance float64
}

// Raycaster is the host's ground query. dir is a unit vector.
type Raycaster interface {
	Raycast(origin, dir geom.Vec3, maxDist float64, layerMask uint32) (Hit, bool)
}

// RaycasterFunc adapts a function to Raycaster.
type RaycasterFunc func(origin, dir geom.Vec3, maxDist float64, layerMask uint32) (Hit, bool)

// Raycast calls f.
func (f RaycasterFunc) Raycast(origin, dir geom.Vec3, maxDist float64, layerMask uint32) (Hit, bool) {
	return f(origin, dir, maxDist, layerMask)
}

// PlaneGround is an infinite horizontal plane. A zero Layer matches any
// mask.
type PlaneGround struct {
	Height float64
	Layer  uint32
}

func (p PlaneGround) Raycast(origin, dir geom.Vec3, maxDist float64, layerMask uint32) (Hit, bool) {
	if p.Layer != 0 && p.Layer&layerMask == 0 {
		return Hit{}, false
	}
	return intersectHorizontal(origin, dir, maxDist, p.Height)
}

// Step is a raised horizontal rectangle on the XZ plane.
type Step struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
	Height     float64
}

func (s Step) contains(p geom.Vec3) bool {
	return p.X() >= s.MinX && p.X() <= s.MaxX && p.Z() >= s.MinZ && p.Z() <= s.MaxZ
}

// StepGround is a floor plane with raised steps. Only step tops are
// solid; rays entering a step through its side are not reported.
type StepGround struct {
	Floor PlaneGround
	Steps []Step
}

func (g StepGround) Raycast(origin, dir geom.Vec3, maxDist float64, layerMask uint32) (Hit, bool) {
	if g.Floor.Layer != 0 && g.Floor.Layer&layerMask == 0 {
		return Hit{}, false
	}
	best, found := g.Floor.Raycast(origin, dir, maxDist, layerMask)
	for _, s := range g.Steps {
		h, ok := intersectHorizontal(origin, dir, maxDist, s.Height)
		if !ok || !s.contains(h.Point) {
			continue
		}
		if !found || h.Distance < best.Distance {
			best, found = h, true
		}
	}
	return best, found
}

func intersectHorizontal(origin, dir geom.Vec3, maxDist, height float64) (Hit, bool) {
	if math.Abs(dir.Y()) < geom.Epsilon {
		return Hit{}, false
	}
	t := (height - origin.Y()) / dir.Y()
	if t < 0 || t > maxDist {
		return Hit{}, false
	}
	normal := geom.Up
	if dir.Y() > 0 {
		normal = geom.Down
	}
	return Hit{Point: origin.Add(dir.Mul(t)), Normal: normal, Distance: t}, true
}
