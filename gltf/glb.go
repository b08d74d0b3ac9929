// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package gltf

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"

	"github.com/wellplay/engine/internal/align"
)

// GLB header.
type glbHeader [3]uint32

// Indices in glbHeader.
const (
	headerMagic   = 0
	headerVersion = 1
	headerLength  = 2
)

// GLB chunk.
type glbChunk [2]uint32

// Indices in glbChunk.
const (
	chunkLength = 0
	chunkType   = 1
	// Then payload.
)

const (
	// glbHeader[headerMagic].
	magic = 0x46546c67

	// glbChunk[chunkType].
	typeJSON = 0x4e4f534a
	typeBIN  = 0x004e4942

	headerSize = 12
	chunkSize  = 8
)

// IsGLB returns whether r refers to a binary glTF (version 2).
// It assumes that r was positioned accordingly.
func IsGLB(r io.Reader) bool {
	var h glbHeader
	err := binary.Read(r, binary.LittleEndian, h[:])
	switch {
	case err != nil, h[headerMagic] != magic, h[headerVersion] != 2:
		return false
	default:
		return true
	}
}

// SeekJSON seeks into r until it finds the beginning
// of the JSON string.
// If successful, it returns the length of the chunk.
// r must refer to an unread GLB blob.
func SeekJSON(r io.Reader) (n int, err error) {
	if !IsGLB(r) {
		err = newErr("not a GLB blob")
		return
	}
	var c glbChunk
	err = binary.Read(r, binary.LittleEndian, c[:])
	switch {
	case err != nil:
	case c[chunkLength] == 0 || c[chunkType] != typeJSON:
		err = newErr("invalid GLB chunk")
	default:
		n = int(c[chunkLength])
	}
	return
}

// ReadGLB reads a GLB blob from r.
// It returns the decoded JSON chunk and the payload of the
// BIN chunk, which is nil if the blob has none.
// r must refer to an unread GLB blob.
func ReadGLB(r io.Reader) (*GLTF, []byte, error) {
	n, err := SeekJSON(r)
	if err != nil {
		return nil, nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, nil, newErr("short GLB JSON chunk")
	}
	gltf, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}

	var c glbChunk
	switch err := binary.Read(r, binary.LittleEndian, c[:]); {
	case errors.Is(err, io.EOF):
		return gltf, nil, nil
	case err != nil:
		return nil, nil, newErr("invalid GLB chunk")
	case c[chunkType] != typeBIN:
		// Unknown chunks must be ignored.
		return gltf, nil, nil
	}
	bin := make([]byte, c[chunkLength])
	if _, err := io.ReadFull(r, bin); err != nil {
		return nil, nil, newErr("short GLB BIN chunk")
	}
	return gltf, bin, nil
}

// WriteGLB writes gltf and an optional BIN payload to w as
// a GLB blob.
// The JSON chunk is padded with spaces and the BIN chunk
// with zeros, as the format requires 4-byte alignment.
func WriteGLB(w io.Writer, gltf *GLTF, bin []byte) error {
	js, err := json.Marshal(gltf)
	if err != nil {
		return newErr("encode: " + err.Error())
	}
	for range align.Up(len(js), 4) - len(js) {
		js = append(js, ' ')
	}
	pad := align.Up(len(bin), 4) - len(bin)

	length := headerSize + chunkSize + len(js)
	if bin != nil {
		length += chunkSize + len(bin) + pad
	}
	var buf bytes.Buffer
	buf.Grow(length)
	h := glbHeader{magic, 2, uint32(length)}
	binary.Write(&buf, binary.LittleEndian, h[:])
	c := glbChunk{uint32(len(js)), typeJSON}
	binary.Write(&buf, binary.LittleEndian, c[:])
	buf.Write(js)
	if bin != nil {
		c = glbChunk{uint32(len(bin) + pad), typeBIN}
		binary.Write(&buf, binary.LittleEndian, c[:])
		buf.Write(bin)
		buf.Write(make([]byte, pad))
	}
	_, err = w.Write(buf.Bytes())
	return err
}
