//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the viewer on the model named by $MODEL.
func (Run) Viewer() error {
	mg.Deps(Build.Viewer)
	model := envOr("MODEL", "")
	fmt.Println("Run viewer...")
	args := []string{}
	if model != "" {
		args = append(args, model)
	}
	_, err := executeCmd("bin/meshview", withArgs(args...), withStream())
	return err
}
