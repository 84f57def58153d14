// Package schema validates suite manifests and run profiles against the
// embedded JSON schemas.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/AndreyAkinshin/conform/schema"
)

var (
	suiteSchema   *jsonschema.Schema
	profileSchema *jsonschema.Schema
	compileOnce   sync.Once
	compileErr    error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for _, name := range []string{"suite.schema.json", "profile.schema.json"} {
			data, err := schemafs.FS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		var err error
		if suiteSchema, err = compiler.Compile("suite.schema.json"); err != nil {
			compileErr = fmt.Errorf("compile suite schema: %w", err)
			return
		}
		if profileSchema, err = compiler.Compile("profile.schema.json"); err != nil {
			compileErr = fmt.Errorf("compile profile schema: %w", err)
			return
		}
	})

	return compileErr
}

// ValidateSuite validates a suite manifest, given as JSON, against the
// suite schema.
func ValidateSuite(data []byte) error {
	return validate(data, func() *jsonschema.Schema { return suiteSchema }, "suite")
}

// ValidateProfile validates a run profile, given as JSON, against the
// profile schema.
func ValidateProfile(data []byte) error {
	return validate(data, func() *jsonschema.Schema { return profileSchema }, "profile")
}

// ValidateValue validates an already decoded YAML or TOML document by
// round-tripping it through JSON.
func ValidateValue(v any, validate func([]byte) error) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return validate(data)
}

func validate(data []byte, schema func() *jsonschema.Schema, what string) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema().Validate(v); err != nil {
		return fmt.Errorf("%s validation failed: %w", what, err)
	}

	return nil
}
