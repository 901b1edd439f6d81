package models

import (
	"github.com/golang/geo/r3"
)

// VertexIndex is the position of a vertex in a mesh vertex array.
type VertexIndex uint32

// Vertex is a position in engine coordinates: X and Z span the ground plane
// and Y is the height.
type Vertex struct {
	X float64
	Y float64
	Z float64
}

// FromSource converts a vertex from the loader's source axes into engine
// coordinates. The source second component becomes the engine Z (negated) and
// the third becomes the engine height.
func FromSource(x, y, z float64) Vertex {
	return Vertex{X: x, Y: -z, Z: y}
}

// Vec returns the vertex as a vector.
func (v Vertex) Vec() r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// Face is a triangle referencing three vertices of a mesh.
type Face struct {
	V0 VertexIndex
	V1 VertexIndex
	V2 VertexIndex
}

// Indices returns the face vertex indices in winding order.
func (f Face) Indices() [3]VertexIndex {
	return [3]VertexIndex{f.V0, f.V1, f.V2}
}

// Mesh is the collision geometry handed over by a mesh loader. It is never
// mutated once built; loading new geometry means building a new Mesh.
type Mesh struct {
	Vertices []Vertex
	Faces    []Face
}

// NewMesh builds a mesh from raw loader arrays.
func NewMesh(vertices [][3]float64, faces [][3]uint32) Mesh {
	m := Mesh{
		Vertices: make([]Vertex, len(vertices)),
		Faces:    make([]Face, len(faces)),
	}

	for i, v := range vertices {
		m.Vertices[i] = Vertex{X: v[0], Y: v[1], Z: v[2]}
	}

	for i, f := range faces {
		m.Faces[i] = Face{
			V0: VertexIndex(f[0]),
			V1: VertexIndex(f[1]),
			V2: VertexIndex(f[2]),
		}
	}

	return m
}

// Triangle returns the three corners of the given face. The face indices must
// be valid, which is guaranteed once the mesh has been indexed.
func (m Mesh) Triangle(f Face) (r3.Vector, r3.Vector, r3.Vector) {
	return m.Vertices[f.V0].Vec(), m.Vertices[f.V1].Vec(), m.Vertices[f.V2].Vec()
}

// InvalidCorner returns the first face corner whose vertex index is out of the
// vertex array bounds. ok is false when every index of every face is valid.
func (m Mesh) InvalidCorner() (face int, corner int, index VertexIndex, ok bool) {
	vertexCount := uint64(len(m.Vertices))

	for i, f := range m.Faces {
		for c, idx := range f.Indices() {
			if uint64(idx) >= vertexCount {
				return i, c, idx, true
			}
		}
	}

	return 0, 0, 0, false
}
