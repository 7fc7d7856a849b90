//go:build mage

// Package main contains Mage build targets for coursegest.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binDir = "bin"

// commands maps binary names to their main packages.
var commands = map[string]string{
	"coursegest":        "./cmd/coursegest",
	"coursegest-server": "./cmd/server",
}

// Default target when mage runs without arguments.
var Default = Build

// Build compiles the CLI and the server into bin/.
func Build() error {
	mg.Deps(Vet)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	for name, pkg := range commands {
		out := filepath.Join(binDir, name)
		if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, pkg); err != nil {
			return fmt.Errorf("go build %s: %w", pkg, err)
		}
		fmt.Printf("Built %s\n", out)
	}
	return nil
}

// sourceDirs are the directories Fmt checks.
var sourceDirs = []string{"cmd", "internal", "magefiles"}

// Fmt fails when any Go file is not gofmt-clean.
func Fmt() error {
	out, err := sh.Output("gofmt", append([]string{"-l"}, sourceDirs...)...)
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// Vet checks formatting and runs go vet over every package.
func Vet() error {
	mg.Deps(Fmt)
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests. Set TEST_POSTGRES_URL to include the postgres store.
func Test() error {
	mg.Deps(Fmt)
	return sh.RunV("go", "test", "-race", "./...")
}

// Cover writes a coverage profile to bin/coverage.out.
func Cover() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	profile := filepath.Join(binDir, "coverage.out")
	if err := sh.RunV("go", "test", "-coverprofile", profile, "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func", profile)
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}
