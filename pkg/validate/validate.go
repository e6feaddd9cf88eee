// Package validate confirms resolved content is syntactically sound and
// free of residual conflict markers before it may be staged.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/remerge-cli/remerge/pkg/scanner"
	"github.com/remerge-cli/remerge/pkg/strategy"
)

// ErrValidation wraps every rejection. Rejections are never silently
// ignored; the orchestrator's retry loop reacts to them.
var ErrValidation = errors.New("validation failed")

// Validate checks resolved content for path under the given strategy.
// Every file is checked for residual markers; JSON and YAML kinds must
// also parse, and supported source languages get a syntax check.
func Validate(path, content string, strat strategy.Strategy) error {
	if scanner.HasMarkers(content) {
		return fmt.Errorf("%w: residual conflict markers in %s", ErrValidation, path)
	}

	switch strat {
	case strategy.JSONMerge, strategy.PackageJSON:
		var v any
		if err := json.Unmarshal([]byte(content), &v); err != nil {
			return fmt.Errorf("%w: %s is not valid JSON: %v", ErrValidation, path, err)
		}
	case strategy.YAMLMerge:
		var v any
		if err := yaml.Unmarshal([]byte(content), &v); err != nil {
			return fmt.Errorf("%w: %s is not valid YAML: %v", ErrValidation, path, err)
		}
	case strategy.CodeMerge:
		if err := checkSyntax(path, []byte(content)); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	return nil
}
