package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/macropower/foldex/api/v1beta1/configs"
	"github.com/macropower/foldex/pkg/yaml"
)

var (
	outFile = flag.String("o", "schema.json", "Output file for the generated schema")
	rootDir = flag.String("root", "../../..", "Module root, used to read doc comments")
)

func main() {
	flag.Parse()

	out, err := filepath.Abs(*outFile)
	if err != nil {
		log.Fatalf("resolve output path: %v", err)
	}

	// Comments are read from package directories relative to the module root.
	err = os.Chdir(*rootDir)
	if err != nil {
		log.Fatalf("change to module root: %v", err)
	}

	gen := yaml.NewSchemaGenerator(configs.New(),
		"github.com/macropower/foldex/api/v1beta1",
		"github.com/macropower/foldex/api/v1beta1/configs",
		"github.com/macropower/foldex/pkg/foldertype",
		"github.com/macropower/foldex/pkg/action",
		"github.com/macropower/foldex/pkg/execs",
	)

	jsData, err := gen.Generate()
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = os.WriteFile(out, jsData, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
