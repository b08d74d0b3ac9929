// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package gltf

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// mesh.primitive.attributes keys.
const (
	POSITION  = "POSITION"
	NORMAL    = "NORMAL"
	JOINTS_0  = "JOINTS_0"
	WEIGHTS_0 = "WEIGHTS_0"
)

// ComponentSize returns the size in bytes of the given
// accessor.componentType value, or 0 if it is not valid.
func ComponentSize(componentType int64) int {
	switch componentType {
	case BYTE, UNSIGNED_BYTE:
		return 1
	case SHORT, UNSIGNED_SHORT:
		return 2
	case UNSIGNED_INT, FLOAT:
		return 4
	default:
		return 0
	}
}

// ComponentCount returns the number of components of the
// given accessor.type value, or 0 if it is not valid.
func ComponentCount(typ string) int {
	switch typ {
	case SCALAR:
		return 1
	case VEC2:
		return 2
	case VEC3:
		return 3
	case VEC4, MAT2:
		return 4
	case MAT3:
		return 9
	case MAT4:
		return 16
	default:
		return 0
	}
}

// File is a glTF asset whose buffers were loaded.
type File struct {
	GLTF *GLTF
	// Data[i] holds the contents of GLTF.Buffers[i].
	Data [][]byte
}

// Load loads the .gltf or .glb file at path.
// External buffers are resolved relative to the file's
// directory.
func Load(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file, filepath.Dir(path))
}

// Read reads a glTF asset from r, which may be either
// JSON or GLB, and resolves its buffers.
// Buffers referring to external files are read from dir.
// The asset is validated with GLTF.Check.
func Read(r io.ReadSeeker, dir string) (*File, error) {
	var gltf *GLTF
	var bin []byte
	var err error
	glb := IsGLB(r)
	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if glb {
		gltf, bin, err = ReadGLB(r)
	} else {
		gltf, err = Decode(r)
	}
	if err != nil {
		return nil, err
	}
	if err = gltf.Check(); err != nil {
		return nil, err
	}

	f := &File{GLTF: gltf, Data: make([][]byte, len(gltf.Buffers))}
	for i := range gltf.Buffers {
		b := &gltf.Buffers[i]
		var data []byte
		switch {
		case b.URI == "":
			if i != 0 || bin == nil {
				return nil, newErr("Buffer has no URI")
			}
			data = bin
		case strings.HasPrefix(b.URI, "data:"):
			if data, err = decodeDataURI(b.URI); err != nil {
				return nil, err
			}
		default:
			name, err := url.PathUnescape(b.URI)
			if err != nil {
				return nil, fmt.Errorf("gltf: Buffer.URI: %w", err)
			}
			if data, err = os.ReadFile(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
				return nil, err
			}
		}
		if int64(len(data)) < b.ByteLength {
			return nil, newErr("Buffer data shorter than Buffer.ByteLength")
		}
		f.Data[i] = data[:b.ByteLength]
	}
	return f, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	_, payload, ok := strings.Cut(uri, ";base64,")
	if !ok {
		return nil, newErr("data URI is not base64")
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("gltf: data URI: %w", err)
	}
	return b, nil
}

// DataURI returns b encoded as a base64 data URI.
func DataURI(b []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b)
}

// elements calls fn with the bytes of each element of
// the given accessor.
// An accessor with no buffer view yields zeroed elements.
func (f *File) elements(accessor int64, fn func(i int, elem []byte)) error {
	if !inRange(accessor, len(f.GLTF.Accessors)) {
		return newErr("invalid accessor index")
	}
	a := &f.GLTF.Accessors[accessor]
	if a.Sparse != nil {
		return newErr("sparse accessors not supported")
	}
	size := ComponentSize(a.ComponentType) * ComponentCount(a.Type)
	if a.BufferView == nil {
		zero := make([]byte, size)
		for i := range int(a.Count) {
			fn(i, zero)
		}
		return nil
	}
	v := &f.GLTF.BufferViews[*a.BufferView]
	data := f.Data[v.Buffer][v.ByteOffset : v.ByteOffset+v.ByteLength]
	stride := int(v.ByteStride)
	if stride == 0 {
		stride = size
	}
	off := int(a.ByteOffset)
	for i := range int(a.Count) {
		fn(i, data[off:off+size])
		off += stride
	}
	return nil
}

// ReadFloats reads the given accessor as float32 values,
// ComponentCount(Type) per element.
// Normalized integer components are mapped to [0, 1] or
// [-1, 1].
func (f *File) ReadFloats(accessor int64) ([]float32, error) {
	if !inRange(accessor, len(f.GLTF.Accessors)) {
		return nil, newErr("invalid accessor index")
	}
	a := &f.GLTF.Accessors[accessor]
	if a.ComponentType != FLOAT && !a.Normalized {
		return nil, newErr("accessor is not FLOAT nor normalized")
	}
	n := ComponentCount(a.Type)
	csz := ComponentSize(a.ComponentType)
	s := make([]float32, 0, int(a.Count)*n)
	err := f.elements(accessor, func(_ int, elem []byte) {
		for j := range n {
			c := elem[j*csz:]
			var x float32
			switch a.ComponentType {
			case FLOAT:
				x = math.Float32frombits(binary.LittleEndian.Uint32(c))
			case UNSIGNED_BYTE:
				x = float32(c[0]) / math.MaxUint8
			case BYTE:
				x = max(float32(int8(c[0]))/math.MaxInt8, -1)
			case UNSIGNED_SHORT:
				x = float32(binary.LittleEndian.Uint16(c)) / math.MaxUint16
			case SHORT:
				x = max(float32(int16(binary.LittleEndian.Uint16(c)))/math.MaxInt16, -1)
			case UNSIGNED_INT:
				x = float32(float64(binary.LittleEndian.Uint32(c)) / math.MaxUint32)
			}
			s = append(s, x)
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ReadUints reads the given accessor as uint32 values,
// ComponentCount(Type) per element.
// The component type must be unsigned.
func (f *File) ReadUints(accessor int64) ([]uint32, error) {
	if !inRange(accessor, len(f.GLTF.Accessors)) {
		return nil, newErr("invalid accessor index")
	}
	a := &f.GLTF.Accessors[accessor]
	n := ComponentCount(a.Type)
	csz := ComponentSize(a.ComponentType)
	switch a.ComponentType {
	case UNSIGNED_BYTE, UNSIGNED_SHORT, UNSIGNED_INT:
	default:
		return nil, newErr("accessor is not unsigned")
	}
	s := make([]uint32, 0, int(a.Count)*n)
	err := f.elements(accessor, func(_ int, elem []byte) {
		for j := range n {
			c := elem[j*csz:]
			switch csz {
			case 1:
				s = append(s, uint32(c[0]))
			case 2:
				s = append(s, uint32(binary.LittleEndian.Uint16(c)))
			default:
				s = append(s, binary.LittleEndian.Uint32(c))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Builder assembles a glTF asset with a single buffer.
// It is meant for writing small assets programmatically.
type Builder struct {
	GLTF GLTF
	buf  bytes.Buffer
}

// NewBuilder creates a Builder with an empty version 2.0
// asset.
func NewBuilder() *Builder {
	b := &Builder{}
	b.GLTF.Asset.Version = "2.0"
	return b
}

// Add appends data as a new buffer view plus an accessor
// of the given type, and returns the accessor's index.
// data must be a slice of float32, uint8, uint16 or uint32.
func (b *Builder) Add(typ string, data any) int64 {
	for b.buf.Len()%4 != 0 {
		b.buf.WriteByte(0)
	}
	off := b.buf.Len()
	var ctype int64
	var cnt int
	switch d := data.(type) {
	case []float32:
		ctype, cnt = FLOAT, len(d)
	case []uint8:
		ctype, cnt = UNSIGNED_BYTE, len(d)
	case []uint16:
		ctype, cnt = UNSIGNED_SHORT, len(d)
	case []uint32:
		ctype, cnt = UNSIGNED_INT, len(d)
	default:
		panic("gltf: Builder.Add: unsupported data type")
	}
	binary.Write(&b.buf, binary.LittleEndian, data)
	b.GLTF.BufferViews = append(b.GLTF.BufferViews, BufferView{
		ByteOffset: int64(off),
		ByteLength: int64(b.buf.Len() - off),
	})
	view := int64(len(b.GLTF.BufferViews) - 1)
	b.GLTF.Accessors = append(b.GLTF.Accessors, Accessor{
		BufferView:    &view,
		ComponentType: ctype,
		Count:         int64(cnt / ComponentCount(typ)),
		Type:          typ,
	})
	return int64(len(b.GLTF.Accessors) - 1)
}

// Bytes returns the buffer contents.
func (b *Builder) Bytes() []byte { return b.buf.Bytes() }

// Finish sets the single buffer of the asset.
// If embed is set, the buffer is stored as a data URI;
// otherwise it has no URI and must be written as the BIN
// chunk of a GLB blob.
func (b *Builder) Finish(embed bool) *GLTF {
	buf := Buffer{ByteLength: int64(b.buf.Len())}
	if embed {
		buf.URI = DataURI(b.buf.Bytes())
	}
	b.GLTF.Buffers = []Buffer{buf}
	return &b.GLTF
}
