package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfSceneBuilder flattens a parsed document into Parts: every mesh primitive reached from the
// active scene becomes one model with its node's world transform baked into the vertices.
type gltfSceneBuilder struct {
	name         string
	parser       *gltfParser
	defaultColor [4]float32

	materials       []material.Material
	defaultMaterial material.Material
	parts           []Part
}

func (b *gltfSceneBuilder) build() (*Asset, error) {
	doc := b.parser.document
	b.materials = make([]material.Material, len(doc.Materials))
	for i, m := range doc.Materials {
		color := b.defaultColor
		if m.PbrMetallicRoughness != nil && m.PbrMetallicRoughness.BaseColorFactor != nil {
			color = *m.PbrMetallicRoughness.BaseColorFactor
		}
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("%s/material_%d", b.name, i)
		}
		b.materials[i] = material.NewMaterial(material.WithName(name), material.WithBaseColor(color))
	}

	for _, root := range b.roots() {
		if err := b.visit(root, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	if len(b.parts) == 0 {
		return nil, fmt.Errorf("loader: %s contains no triangle meshes", b.name)
	}

	materials := b.materials
	if b.defaultMaterial != nil {
		materials = append(materials, b.defaultMaterial)
	}
	return &Asset{Name: b.name, Parts: b.parts, Materials: materials}, nil
}

// roots returns the root nodes of the active scene. Documents without scenes render every
// node that is not a child of another.
func (b *gltfSceneBuilder) roots() []int {
	doc := b.parser.document
	if len(doc.Scenes) > 0 {
		active := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			active = *doc.Scene
		}
		return doc.Scenes[active].Nodes
	}
	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// maxNodeDepth bounds recursion through malformed, cyclic hierarchies.
const maxNodeDepth = 64

func (b *gltfSceneBuilder) visit(index int, parent mgl32.Mat4, depth int) error {
	doc := b.parser.document
	if index < 0 || index >= len(doc.Nodes) {
		return fmt.Errorf("loader: node %d out of range", index)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("loader: node hierarchy deeper than %d", maxNodeDepth)
	}
	node := doc.Nodes[index]
	world := parent.Mul4(nodeMatrix(node))

	if node.Mesh != nil {
		if *node.Mesh < 0 || *node.Mesh >= len(doc.Meshes) {
			return fmt.Errorf("loader: node %d references mesh %d", index, *node.Mesh)
		}
		mesh := doc.Meshes[*node.Mesh]
		for pi, prim := range mesh.Primitives {
			if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
				continue
			}
			name := mesh.Name
			if name == "" {
				name = fmt.Sprintf("mesh_%d", *node.Mesh)
			}
			name = fmt.Sprintf("%s/%s/%d/%d", b.name, name, index, pi)
			part, err := b.primitive(name, prim, world)
			if err != nil {
				return fmt.Errorf("loader: %s: %w", name, err)
			}
			b.parts = append(b.parts, part)
		}
	}
	for _, c := range node.Children {
		if err := b.visit(c, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeMatrix returns a node's local transform: its matrix, or T * R * S.
func nodeMatrix(n gltfNode) mgl32.Mat4 {
	if n.Matrix != nil {
		return mgl32.Mat4(*n.Matrix)
	}
	m := mgl32.Ident4()
	if t := n.Translation; t != nil {
		m = mgl32.Translate3D(t[0], t[1], t[2])
	}
	if r := n.Rotation; r != nil {
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
		m = m.Mul4(q.Mat4())
	}
	if s := n.Scale; s != nil {
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}

func (b *gltfSceneBuilder) primitive(name string, prim gltfPrimitive, world mgl32.Mat4) (Part, error) {
	posIndex, ok := prim.Attributes[gltfAttrPosition]
	if !ok {
		return Part{}, fmt.Errorf("missing %s attribute", gltfAttrPosition)
	}
	positions, err := b.parser.ReadFloats(posIndex, 3)
	if err != nil {
		return Part{}, err
	}

	var normals, uvs [][4]float32
	if idx, ok := prim.Attributes[gltfAttrNormal]; ok {
		if normals, err = b.parser.ReadFloats(idx, 3); err != nil {
			return Part{}, err
		}
	}
	if idx, ok := prim.Attributes[gltfAttrTexCoord]; ok {
		if uvs, err = b.parser.ReadFloats(idx, 2); err != nil {
			return Part{}, err
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = b.parser.ReadIndices(*prim.Indices); err != nil {
			return Part{}, err
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	indices = indices[:len(indices)-len(indices)%3]
	for _, i := range indices {
		if int(i) >= len(positions) {
			return Part{}, fmt.Errorf("index %d out of range of %d vertices", i, len(positions))
		}
	}

	normalMat := world.Mat3().Inv().Transpose()
	// A mirroring transform flips the winding; swap two corners to keep triangles front facing.
	if world.Mat3().Det() < 0 {
		for i := 0; i+2 < len(indices); i += 3 {
			indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
		}
	}

	vertices := make([]model.GPUVertex, len(positions))
	for i, p := range positions {
		wp := world.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
		vertices[i].Position = [3]float32{wp[0], wp[1], wp[2]}
		if normals != nil && i < len(normals) {
			n := normalMat.Mul3x1(mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]})
			if n.Len() > 0 {
				n = n.Normalize()
			}
			vertices[i].Normal = n
		}
		if uvs != nil && i < len(uvs) {
			vertices[i].TexCoord = [2]float32{uvs[i][0], uvs[i][1]}
		}
	}
	if normals == nil {
		generateNormals(vertices, indices)
	}

	return Part{
		Model:    model.NewModel(model.WithName(name), model.WithMesh(model.Mesh{Vertices: vertices, Indices: indices})),
		Material: b.material(prim.Material),
	}, nil
}

func (b *gltfSceneBuilder) material(index *int) material.Material {
	if index != nil && *index >= 0 && *index < len(b.materials) {
		return b.materials[*index]
	}
	if b.defaultMaterial == nil {
		b.defaultMaterial = material.NewMaterial(
			material.WithName(b.name+"/default"),
			material.WithBaseColor(b.defaultColor),
		)
	}
	return b.defaultMaterial
}

// generateNormals computes smooth vertex normals by accumulating area-weighted face normals.
// Vertices touched by no triangle point up.
func generateNormals(vertices []model.GPUVertex, indices []uint32) {
	acc := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0 := mgl32.Vec3(vertices[i0].Position)
		p1 := mgl32.Vec3(vertices[i1].Position)
		p2 := mgl32.Vec3(vertices[i2].Position)
		face := p1.Sub(p0).Cross(p2.Sub(p0))
		acc[i0] = acc[i0].Add(face)
		acc[i1] = acc[i1].Add(face)
		acc[i2] = acc[i2].Add(face)
	}
	for i, n := range acc {
		if n.Len() > 1e-12 {
			vertices[i].Normal = n.Normalize()
		} else {
			vertices[i].Normal = [3]float32{0, 1, 0}
		}
	}
}
