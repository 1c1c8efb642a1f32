// Wavefront MTL (material library) parser.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMTLSyntax reports a malformed MTL statement.
var ErrMTLSyntax = errors.New("MTL syntax error")

// MTLMaterial is one newmtl block.
type MTLMaterial struct {
	Name      string
	Ambient   [3]float32
	Diffuse   [3]float32
	Specular  [3]float32
	Shininess float32
	Dissolve  float32 // 1 = opaque
	Illum     int

	DiffuseMap string // map_Kd
	BumpMap    string // map_bump, bump, map_Bump or norm
}

// MTL represents a parsed material library.
type MTL struct {
	Materials []MTLMaterial
}

// Find returns the material with the given name, or nil.
func (m *MTL) Find(name string) *MTLMaterial {
	for i := range m.Materials {
		if m.Materials[i].Name == name {
			return &m.Materials[i]
		}
	}
	return nil
}

// Texture map options and how many arguments each takes. -o, -s and -t
// take up to three numbers.
var mtlMapOptions = map[string]int{
	"-bm":      1,
	"-blendu":  1,
	"-blendv":  1,
	"-boost":   1,
	"-cc":      1,
	"-clamp":   1,
	"-imfchan": 1,
	"-mm":      2,
	"-o":       3,
	"-s":       3,
	"-t":       3,
	"-texres":  1,
	"-type":    1,
}

// ParseMTL parses MTL text.
func ParseMTL(r io.Reader) (*MTL, error) {
	mtl := &MTL{}
	var cur *MTLMaterial

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		key, args := fields[0], fields[1:]

		if key == "newmtl" {
			if len(args) == 0 {
				return nil, fmt.Errorf("%w: line %d: newmtl without a name", ErrMTLSyntax, line)
			}
			mtl.Materials = append(mtl.Materials, MTLMaterial{
				Name:     strings.Join(args, " "),
				Diffuse:  [3]float32{1, 1, 1},
				Dissolve: 1,
			})
			cur = &mtl.Materials[len(mtl.Materials)-1]
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("%w: line %d: %s before newmtl", ErrMTLSyntax, line, key)
		}

		var err error
		switch key {
		case "Ka":
			cur.Ambient, err = mtlColor(args)
		case "Kd":
			cur.Diffuse, err = mtlColor(args)
		case "Ks":
			cur.Specular, err = mtlColor(args)
		case "Ns":
			cur.Shininess, err = mtlFloat(args)
		case "d":
			cur.Dissolve, err = mtlFloat(args)
		case "Tr":
			var tr float32
			tr, err = mtlFloat(args)
			cur.Dissolve = 1 - tr
		case "illum":
			var f float32
			f, err = mtlFloat(args)
			cur.Illum = int(f)
		case "map_Kd":
			cur.DiffuseMap, err = mtlMapFile(args)
		case "map_bump", "map_Bump", "bump", "norm":
			cur.BumpMap, err = mtlMapFile(args)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s: %v", ErrMTLSyntax, line, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading MTL: %w", err)
	}
	return mtl, nil
}

// ParseMTLFile parses an MTL file from disk.
func ParseMTLFile(path string) (*MTL, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening MTL file: %w", err)
	}
	defer f.Close()
	return ParseMTL(f)
}

func mtlFloat(args []string) (float32, error) {
	if len(args) == 0 {
		return 0, errors.New("missing value")
	}
	f, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[0])
	}
	return float32(f), nil
}

// mtlColor parses "r g b"; a single value is used for all channels.
func mtlColor(args []string) ([3]float32, error) {
	var c [3]float32
	if len(args) == 0 {
		return c, errors.New("missing color")
	}
	for i := range c {
		a := args[0]
		if i < len(args) {
			a = args[i]
		}
		f, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return c, fmt.Errorf("invalid number %q", a)
		}
		c[i] = float32(f)
	}
	return c, nil
}

// mtlMapFile skips texture map options and returns the file name, which may
// contain spaces.
func mtlMapFile(args []string) (string, error) {
	i := 0
	for i < len(args) {
		n, ok := mtlMapOptions[args[i]]
		if !ok {
			break
		}
		i++
		for j := 0; j < n && i < len(args); j++ {
			if j > 0 && !isNumber(args[i]) {
				break
			}
			i++
		}
	}
	if i >= len(args) {
		return "", errors.New("missing file name")
	}
	return strings.Join(args[i:], " "), nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
