package config

import (
	"embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"sigs.k8s.io/yaml"

	"github.com/opmodel/capsule/internal/capsule"
)

//go:embed schema/config.cue
var schemaFS embed.FS

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Validator validates configuration against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schemaData, err := schemaFS.ReadFile("schema/config.cue")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaData, cue.Filename("config.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return nil, fmt.Errorf("schema has no #Config definition")
	}

	return &Validator{
		ctx:    ctx,
		schema: def,
	}, nil
}

// Validate runs the checks the schema cannot express on a loaded configuration.
func (v *Validator) Validate(cfg *Config) error {
	var errs ValidationErrors

	if pm := cfg.Capsule.PackageManager; pm != "" && !slices.Contains(capsule.SupportedPackageManagers, pm) {
		errs = append(errs, ValidationError{
			Field:   "capsule.packageManager",
			Message: fmt.Sprintf("unsupported package manager %q (supported: %s)", pm, strings.Join(capsule.SupportedPackageManagers, ", ")),
		})
	}

	if cfg.Capsule.BaseDir != "" && strings.TrimSpace(cfg.Capsule.BaseDir) == "" {
		errs = append(errs, ValidationError{
			Field:   "capsule.baseDir",
			Message: "must not be empty or whitespace only",
		})
	}

	for field, value := range map[string]string{
		"workspaceFile": cfg.WorkspaceFile,
		"scopeDir":      cfg.ScopeDir,
		"metrics.file":  cfg.Metrics.File,
	} {
		if value != "" && strings.TrimSpace(value) == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "must not be empty or whitespace only",
			})
		}
	}

	if len(errs) > 0 {
		slices.SortFunc(errs, func(a, b ValidationError) int {
			return strings.Compare(a.Field, b.Field)
		})
		return errs
	}
	return nil
}

// ValidateBytes checks raw YAML configuration against the schema.
func (v *Validator) ValidateBytes(data []byte) error {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return ValidationErrors{{Field: "(root)", Message: fmt.Sprintf("invalid YAML: %v", err)}}
	}
	if strings.TrimSpace(string(jsonData)) == "null" {
		return nil
	}

	value := v.ctx.CompileBytes(jsonData, cue.Filename("config.yaml"))
	if value.Err() != nil {
		return ValidationErrors{{Field: "(root)", Message: value.Err().Error()}}
	}

	unified := v.schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// ValidateFile validates a configuration file at the given path against the
// schema and the semantic checks of Validate.
func (v *Validator) ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := v.ValidateBytes(data); err != nil {
		return err
	}

	cfg, err := NewLoader().Load(path)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	return v.Validate(cfg)
}

func toValidationErrors(err error) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = "(root)"
		}
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if seen[field+msg] {
			continue
		}
		seen[field+msg] = true
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}
	return errs
}
