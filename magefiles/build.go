//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var binaries = []string{"meshview", "meshtool"}

// Builds every command into bin/.
func (Build) All() error {
	for _, name := range binaries {
		if err := buildBinary(name); err != nil {
			return err
		}
	}
	return nil
}

// Builds the viewer into bin/meshview.
func (Build) Viewer() error {
	return buildBinary("meshview")
}

// Builds the inspection tool into bin/meshtool.
func (Build) Tool() error {
	return buildBinary("meshtool")
}

func buildBinary(name string) error {
	out := filepath.Join("bin", name)
	_, err := executeCmd("go", withArgs("build", "-o", out, "./cmd/"+name), withStream())
	return err
}
