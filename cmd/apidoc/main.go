// Command apidoc exports the generated OpenAPI document as YAML and checks a
// revision for changes that would break existing API clients.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"techsparks/docs"

	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(os.Args[2:])
	case "compat":
		err = runCompat(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: apidoc export [-out swagger.yaml] | apidoc compat -base <path> [-revision <path>]")
	os.Exit(2)
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "output file (stdout when empty)")
	_ = fs.Parse(args)

	raw, err := exportYAML()
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = os.Stdout.Write(raw)
		return err
	}
	return os.WriteFile(*out, raw, 0o600)
}

// exportYAML renders the registered swagger document as YAML.
func exportYAML() ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		return nil, fmt.Errorf("parse generated doc: %w", err)
	}
	return yaml.Marshal(doc)
}

func runCompat(args []string) error {
	fs := flag.NewFlagSet("compat", flag.ExitOnError)
	basePath := fs.String("base", "", "base OpenAPI document (YAML or JSON)")
	revisionPath := fs.String("revision", "", "revision document; defaults to the generated one")
	_ = fs.Parse(args)

	if strings.TrimSpace(*basePath) == "" {
		usage()
	}

	base, err := loadFile(*basePath)
	if err != nil {
		return fmt.Errorf("failed to load base document: %w", err)
	}

	var revision apiSurface
	if *revisionPath == "" {
		revision, err = parseSurface([]byte(docs.SwaggerInfo.ReadDoc()))
	} else {
		revision, err = loadFile(*revisionPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load revision document: %w", err)
	}

	issues := breakingChanges(base, revision)
	if len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		return fmt.Errorf("%d breaking change(s)", len(issues))
	}

	fmt.Println("openapi compatibility check passed")
	return nil
}

func loadFile(path string) (apiSurface, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return apiSurface{}, err
	}
	return parseSurface(raw)
}
