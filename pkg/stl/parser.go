package stl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/unitech3d/stlquote/pkg/geometry"
)

// ParseFile reads a whole ASCII STL file into memory and parses it.
// The mesh name falls back to the file's base name.
func ParseFile(filename string) (*Mesh, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	mesh := Parse(data)
	if mesh.Name == "" {
		mesh.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return mesh, nil
}

// ParseReader drains reader and parses the collected bytes. Only read errors
// are returned; the content itself never fails to parse.
func ParseReader(reader io.Reader) (*Mesh, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL data: %w", err)
	}
	return Parse(data), nil
}

// Parse extracts triangles from ASCII STL text on a best-effort basis.
//
// Every "vertex x y z" record feeds a rolling buffer that emits a triangle
// once it holds three vertices. A vertex record that is short or not numeric
// clears the buffer and parsing carries on with the next line. All other
// records (facet, normal, outer loop, endloop, endfacet, endsolid) are
// ignored, so facet nesting is never validated. The returned mesh is empty
// when no complete triangle could be assembled.
func Parse(data []byte) *Mesh {
	text := decodeText(data)
	mesh := NewMesh("")

	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), len(text)+1)
	scanner.Split(scanLines)

	pending := make([]geometry.Vector3, 0, 3)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "solid":
			if mesh.Name == "" && len(fields) > 1 {
				mesh.Name = strings.Join(fields[1:], " ")
			}

		case "vertex":
			vertex, ok := parseVertex(fields[1:])
			if !ok {
				pending = pending[:0]
				continue
			}
			pending = append(pending, vertex)
			if len(pending) == 3 {
				mesh.AddTriangle(geometry.NewTriangle(pending[0], pending[1], pending[2]))
				pending = pending[:0]
			}
		}
	}

	return mesh
}

// parseVertex reads the first three coordinate tokens; extra tokens are ignored.
func parseVertex(tokens []string) (geometry.Vector3, bool) {
	if len(tokens) < 3 {
		return geometry.Vector3{}, false
	}

	var coords [3]float64
	for i := range coords {
		value, err := strconv.ParseFloat(tokens[i], 64)
		// Overflowing literals such as 1e400 are kept as ±Inf.
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return geometry.Vector3{}, false
		}
		coords[i] = value
	}

	return geometry.NewVector3(coords[0], coords[1], coords[2]), true
}

// decodeText returns data as valid UTF-8, silently dropping byte sequences
// that do not decode.
func decodeText(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	dropInvalid := runes.Remove(runes.Predicate(func(r rune) bool {
		return r == utf8.RuneError
	}))
	text, _, err := transform.Bytes(dropInvalid, data)
	if err != nil {
		return bytes.ToValidUTF8(data, nil)
	}
	return text
}

// scanLines is bufio.ScanLines extended to treat a bare '\r' as a line
// terminator as well, so classic Mac line endings still split.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// A trailing '\r' may be the first half of "\r\n".
		return 0, nil, nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
