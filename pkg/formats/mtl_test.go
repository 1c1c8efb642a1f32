package formats

import (
	"errors"
	"strings"
	"testing"
)

func TestParseMTL(t *testing.T) {
	src := `# materials
newmtl stone
Kd 0.5 0.5 0.5
Ns 10
map_Kd -s 2 2 stone wall.png
map_bump -bm 0.5 stone_n.tga

newmtl wood
Ka 0.1
Tr 0.25
bump wood_bump.png
illum 2

newmtl glass
d 0.3
norm -o 0.1 0.2 glass_n.png
`
	mtl, err := ParseMTL(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseMTL failed: %v", err)
	}
	if len(mtl.Materials) != 3 {
		t.Fatalf("materials = %d, want 3", len(mtl.Materials))
	}

	stone := mtl.Find("stone")
	if stone == nil {
		t.Fatal("stone not found")
	}
	if stone.DiffuseMap != "stone wall.png" {
		t.Errorf("stone DiffuseMap = %q", stone.DiffuseMap)
	}
	if stone.BumpMap != "stone_n.tga" {
		t.Errorf("stone BumpMap = %q", stone.BumpMap)
	}
	if stone.Diffuse != [3]float32{0.5, 0.5, 0.5} || stone.Shininess != 10 {
		t.Errorf("stone Kd = %v, Ns = %v", stone.Diffuse, stone.Shininess)
	}

	wood := mtl.Find("wood")
	if wood.BumpMap != "wood_bump.png" || wood.DiffuseMap != "" {
		t.Errorf("wood maps = %q, %q", wood.DiffuseMap, wood.BumpMap)
	}
	if wood.Ambient != [3]float32{0.1, 0.1, 0.1} {
		t.Errorf("wood Ka = %v", wood.Ambient)
	}
	if wood.Dissolve != 0.75 || wood.Illum != 2 {
		t.Errorf("wood d = %v, illum = %d", wood.Dissolve, wood.Illum)
	}
	if wood.Diffuse != [3]float32{1, 1, 1} {
		t.Errorf("default Kd = %v, want white", wood.Diffuse)
	}

	if glass := mtl.Find("glass"); glass.BumpMap != "glass_n.png" {
		t.Errorf("glass BumpMap = %q", glass.BumpMap)
	}
	if mtl.Find("missing") != nil {
		t.Error("Find returned a material for an unknown name")
	}
}

func TestParseMTL_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"statement before newmtl", "Kd 1 1 1\n"},
		{"unnamed material", "newmtl\n"},
		{"bad color", "newmtl a\nKd red\n"},
		{"map without file", "newmtl a\nmap_Kd -s 1 1 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMTL(strings.NewReader(tt.src))
			if !errors.Is(err, ErrMTLSyntax) {
				t.Errorf("expected ErrMTLSyntax, got %v", err)
			}
		})
	}
}
