package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"patch": true, "head": true, "options": true,
}

// endpoint is the part of an operation clients depend on.
type endpoint struct {
	responses map[string]bool
	// required parameters keyed "<in>:<name>"
	required map[string]bool
}

// apiSurface maps "METHOD /path" to its endpoint.
type apiSurface map[string]endpoint

type rawOperation struct {
	Parameters []struct {
		Name     string `yaml:"name"`
		In       string `yaml:"in"`
		Required bool   `yaml:"required"`
	} `yaml:"parameters"`
	Responses map[string]yaml.Node `yaml:"responses"`
}

// parseSurface reads a swagger document. JSON documents parse as YAML.
func parseSurface(raw []byte) (apiSurface, error) {
	var doc struct {
		Paths map[string]map[string]yaml.Node `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, errors.New("missing top-level paths field")
	}

	surface := apiSurface{}
	for path, methods := range doc.Paths {
		for method, node := range methods {
			m := strings.ToLower(strings.TrimSpace(method))
			if !httpMethods[m] {
				continue
			}
			var op rawOperation
			if err := node.Decode(&op); err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(m), path, err)
			}

			ep := endpoint{responses: map[string]bool{}, required: map[string]bool{}}
			for code := range op.Responses {
				ep.responses[strings.ToLower(strings.TrimSpace(code))] = true
			}
			for _, p := range op.Parameters {
				if p.Required {
					ep.required[p.In+":"+p.Name] = true
				}
			}
			surface[strings.ToUpper(m)+" "+path] = ep
		}
	}
	return surface, nil
}

// breakingChanges lists removed operations, removed response codes and newly
// required parameters, sorted.
func breakingChanges(base, revision apiSurface) []string {
	var issues []string

	for key, baseEp := range base {
		revEp, ok := revision[key]
		if !ok {
			issues = append(issues, "removed operation: "+key)
			continue
		}
		for code := range baseEp.responses {
			if !revEp.responses[code] {
				issues = append(issues, fmt.Sprintf("removed response code: %s -> %s", key, code))
			}
		}
		for param := range revEp.required {
			if !baseEp.required[param] {
				issues = append(issues, fmt.Sprintf("new required parameter: %s -> %s", key, param))
			}
		}
	}

	sort.Strings(issues)
	return issues
}
