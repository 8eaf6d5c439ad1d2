// Package fieldlayout provides the static, field-relative poses of known fiducials.
// Layouts are loaded once at startup and never mutated.
package fieldlayout

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
)

//go:embed data/speaker2024.json
var defaultLayoutJSON []byte

// A Layout looks up the field pose of a fiducial by id.
type Layout interface {
	PoseOf(id int) (spatialmath.Pose, bool)
}

// Static is an immutable Layout backed by a map.
type Static struct {
	poses  map[int]spatialmath.Pose
	length units.Distance
	width  units.Distance
}

// NewStatic returns a layout holding a copy of poses.
func NewStatic(poses map[int]spatialmath.Pose, length, width units.Distance) *Static {
	cp := make(map[int]spatialmath.Pose, len(poses))
	for id, p := range poses {
		cp[id] = p
	}
	return &Static{poses: cp, length: length, width: width}
}

// PoseOf returns the field pose of the fiducial, or false if the layout does not know it.
func (s *Static) PoseOf(id int) (spatialmath.Pose, bool) {
	p, ok := s.poses[id]
	return p, ok
}

// IDs returns the known fiducial ids in ascending order.
func (s *Static) IDs() []int {
	ids := make([]int, 0, len(s.poses))
	for id := range s.poses {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Length of the field along x.
func (s *Static) Length() units.Distance {
	return s.length
}

// Width of the field along y.
func (s *Static) Width() units.Distance {
	return s.width
}

type jsonLayout struct {
	Tags []struct {
		ID   int `json:"ID"`
		Pose struct {
			Translation struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
				Z float64 `json:"z"`
			} `json:"translation"`
			Rotation struct {
				Quaternion struct {
					W float64 `json:"W"`
					X float64 `json:"X"`
					Y float64 `json:"Y"`
					Z float64 `json:"Z"`
				} `json:"quaternion"`
			} `json:"rotation"`
		} `json:"pose"`
	} `json:"tags"`
	Field struct {
		Length float64 `json:"length"`
		Width  float64 `json:"width"`
	} `json:"field"`
}

// FromReader decodes an AprilTag field layout document (meters, unit quaternions).
func FromReader(r io.Reader) (*Static, error) {
	var doc jsonLayout
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "cannot decode field layout")
	}
	poses := make(map[int]spatialmath.Pose, len(doc.Tags))
	for _, tag := range doc.Tags {
		if _, dup := poses[tag.ID]; dup {
			return nil, errors.Errorf("field layout lists fiducial %d twice", tag.ID)
		}
		t := tag.Pose.Translation
		q := tag.Pose.Rotation.Quaternion
		if q.W == 0 && q.X == 0 && q.Y == 0 && q.Z == 0 {
			return nil, errors.Errorf("fiducial %d has a zero rotation quaternion", tag.ID)
		}
		poses[tag.ID] = spatialmath.NewPose(
			r3.Vector{X: t.X, Y: t.Y, Z: t.Z},
			spatialmath.NewQuaternion(quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}),
		)
	}
	return NewStatic(poses, units.Meters(doc.Field.Length), units.Meters(doc.Field.Width)), nil
}

// Read loads a field layout document from a file.
func Read(path string) (*Static, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open field layout %q", path)
	}
	defer func() {
		_ = f.Close()
	}()
	return FromReader(f)
}

// Default returns the built-in layout of the speaker fiducials.
func Default() *Static {
	layout, err := FromReader(bytes.NewReader(defaultLayoutJSON))
	if err != nil {
		panic(errors.Wrap(err, "embedded field layout is invalid"))
	}
	return layout
}
