package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Errors returned while decoding a glTF document.
var (
	ErrInvalidGLTFVersion = errors.New("loader: invalid glTF version, must be 2.x")
	ErrInvalidGLB         = errors.New("loader: invalid GLB container")
	ErrInvalidBufferURI   = errors.New("loader: invalid buffer URI")
	ErrInvalidAccessor    = errors.New("loader: invalid accessor")
)

// gltfParser decodes a glTF JSON or GLB document and reads accessor data out of its buffers.
type gltfParser struct {
	baseDir  string
	document *gltfDocument
	binChunk []byte
}

func newGLTFParser(baseDir string) *gltfParser {
	return &gltfParser{baseDir: baseDir}
}

// Parse reads a .gltf or .glb file, detecting the container from its extension.
func (p *gltfParser) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loader: read %s: %w", path, err)
	}
	p.baseDir = filepath.Dir(path)
	return p.decode(data, strings.EqualFold(filepath.Ext(path), ".glb"))
}

// ParseReader decodes a document from r. External buffer URIs resolve against the base directory
// given to newGLTFParser.
func (p *gltfParser) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("loader: read: %w", err)
	}
	return p.decode(data, isGLB)
}

func (p *gltfParser) decode(data []byte, isGLB bool) error {
	jsonData := data
	if isGLB {
		var err error
		if jsonData, p.binChunk, err = splitGLB(data); err != nil {
			return err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("loader: decode JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("%w: got %q", ErrInvalidGLTFVersion, doc.Asset.Version)
	}
	if err := p.loadBuffers(&doc); err != nil {
		return err
	}
	p.document = &doc
	return nil
}

// splitGLB returns the JSON and optional BIN chunk of a GLB container.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	r := bytes.NewReader(data)
	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("%w: header: %v", ErrInvalidGLB, err)
	}
	if header.Magic != gltfGLBMagic {
		return nil, nil, fmt.Errorf("%w: bad magic 0x%08x", ErrInvalidGLB, header.Magic)
	}
	if header.Version != gltfGLBVersion {
		return nil, nil, fmt.Errorf("%w: version %d", ErrInvalidGLB, header.Version)
	}
	if int(header.Length) > len(data) {
		return nil, nil, fmt.Errorf("%w: length %d exceeds %d bytes", ErrInvalidGLB, header.Length, len(data))
	}

	for r.Len() > 0 {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			return nil, nil, fmt.Errorf("%w: chunk header: %v", ErrInvalidGLB, err)
		}
		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, nil, fmt.Errorf("%w: chunk body: %v", ErrInvalidGLB, err)
		}
		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			if jsonChunk == nil {
				jsonChunk = body
			}
		case gltfGLBChunkBIN:
			if binChunk == nil {
				binChunk = body
			}
		}
	}
	if jsonChunk == nil {
		return nil, nil, fmt.Errorf("%w: missing JSON chunk", ErrInvalidGLB)
	}
	return jsonChunk, binChunk, nil
}

// loadBuffers resolves every buffer from the GLB BIN chunk, a data URI or a file beside the document.
func (p *gltfParser) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]
		var data []byte
		switch {
		case buf.URI == "" && i == 0 && p.binChunk != nil:
			data = p.binChunk
		case strings.HasPrefix(buf.URI, "data:"):
			var err error
			if data, err = decodeDataURI(buf.URI); err != nil {
				return fmt.Errorf("loader: buffer %d: %w", i, err)
			}
		case buf.URI != "":
			var err error
			if data, err = os.ReadFile(filepath.Join(p.baseDir, filepath.FromSlash(buf.URI))); err != nil {
				return fmt.Errorf("loader: buffer %d: %w", i, err)
			}
		default:
			return fmt.Errorf("loader: buffer %d: %w: no data source", i, ErrInvalidBufferURI)
		}
		if len(data) < buf.ByteLength {
			return fmt.Errorf("loader: buffer %d: %d bytes, expected %d", i, len(data), buf.ByteLength)
		}
		buf.Data = data[:buf.ByteLength]
	}
	return nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrInvalidBufferURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBufferURI, err)
	}
	return data, nil
}

// accessorView locates the elements of an accessor: the backing bytes, the stride between
// elements, the component size and the component count per element.
func (p *gltfParser) accessorView(index int) (acc gltfAccessor, data []byte, stride, compSize, comps int, err error) {
	doc := p.document
	if index < 0 || index >= len(doc.Accessors) {
		return acc, nil, 0, 0, 0, fmt.Errorf("%w: index %d out of range", ErrInvalidAccessor, index)
	}
	acc = doc.Accessors[index]
	comps = gltfAccessorComponents[acc.Type]
	compSize = gltfComponentTypeSize(acc.ComponentType)
	if comps == 0 || compSize == 0 {
		return acc, nil, 0, 0, 0, fmt.Errorf("%w: %d has type %s/%d", ErrInvalidAccessor, index, acc.Type, acc.ComponentType)
	}
	if acc.Sparse != nil {
		return acc, nil, 0, 0, 0, fmt.Errorf("%w: %d is sparse", ErrInvalidAccessor, index)
	}
	if acc.BufferView == nil {
		return acc, nil, 0, 0, 0, fmt.Errorf("%w: %d has no buffer view", ErrInvalidAccessor, index)
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return acc, nil, 0, 0, 0, fmt.Errorf("%w: %d references buffer view %d", ErrInvalidAccessor, index, *acc.BufferView)
	}
	bv := doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return acc, nil, 0, 0, 0, fmt.Errorf("%w: buffer view references buffer %d", ErrInvalidAccessor, bv.Buffer)
	}

	elemSize := comps * compSize
	stride = elemSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}
	buf := doc.Buffers[bv.Buffer].Data
	start := bv.ByteOffset + acc.ByteOffset
	end := start
	if acc.Count > 0 {
		end = start + (acc.Count-1)*stride + elemSize
	}
	if start < 0 || end > len(buf) || end > bv.ByteOffset+bv.ByteLength {
		return acc, nil, 0, 0, 0, fmt.Errorf("%w: %d overruns its buffer view", ErrInvalidAccessor, index)
	}
	return acc, buf[start:end], stride, compSize, comps, nil
}

// ReadFloats reads an accessor as float32 elements of want components each. Integer components
// are converted, normalized per the glTF rules when the accessor is marked normalized.
func (p *gltfParser) ReadFloats(index, want int) ([][4]float32, error) {
	acc, data, stride, compSize, comps, err := p.accessorView(index)
	if err != nil {
		return nil, err
	}
	if comps != want {
		return nil, fmt.Errorf("%w: %d has %d components, want %d", ErrInvalidAccessor, index, comps, want)
	}
	out := make([][4]float32, acc.Count)
	for i := range out {
		elem := data[i*stride:]
		for c := 0; c < comps && c < 4; c++ {
			out[i][c] = readComponent(elem[c*compSize:], acc.ComponentType, acc.Normalized)
		}
	}
	return out, nil
}

// ReadIndices reads an index accessor of unsigned byte, short or int components.
func (p *gltfParser) ReadIndices(index int) ([]uint32, error) {
	acc, data, stride, _, comps, err := p.accessorView(index)
	if err != nil {
		return nil, err
	}
	if comps != 1 {
		return nil, fmt.Errorf("%w: index accessor %d is %s", ErrInvalidAccessor, index, acc.Type)
	}
	out := make([]uint32, acc.Count)
	for i := range out {
		elem := data[i*stride:]
		switch acc.ComponentType {
		case gltfComponentTypeUnsignedByte:
			out[i] = uint32(elem[0])
		case gltfComponentTypeUnsignedShort:
			out[i] = uint32(binary.LittleEndian.Uint16(elem))
		case gltfComponentTypeUnsignedInt:
			out[i] = binary.LittleEndian.Uint32(elem)
		default:
			return nil, fmt.Errorf("%w: index accessor %d has component type %d", ErrInvalidAccessor, index, acc.ComponentType)
		}
	}
	return out, nil
}

func readComponent(b []byte, componentType int, normalized bool) float32 {
	switch componentType {
	case gltfComponentTypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltfComponentTypeByte:
		v := float32(int8(b[0]))
		if normalized {
			return max(v/127, -1)
		}
		return v
	case gltfComponentTypeUnsignedByte:
		v := float32(b[0])
		if normalized {
			return v / 255
		}
		return v
	case gltfComponentTypeShort:
		v := float32(int16(binary.LittleEndian.Uint16(b)))
		if normalized {
			return max(v/32767, -1)
		}
		return v
	case gltfComponentTypeUnsignedShort:
		v := float32(binary.LittleEndian.Uint16(b))
		if normalized {
			return v / 65535
		}
		return v
	case gltfComponentTypeUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	}
	return 0
}
