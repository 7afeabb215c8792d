package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/sigcheck/internal/harness"
	"github.com/roach88/sigcheck/internal/rules"
)

// loadSuite returns the suite at path, or the built-in suite when path is
// empty. Strict re-parses the built-in rules strictly as well, so a typo in
// the catalog would surface the same way one in a file does.
func loadSuite(path string, strict bool) (*harness.Suite, error) {
	if path == "" {
		if strict {
			if _, err := rules.ParseLines(harness.DefaultRuleText, rules.Strict); err != nil {
				return nil, err
			}
		}
		return harness.Builtin(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("suite file not found: %s", path)
	}
	return harness.LoadSuite(path, harness.LoadOptions{Strict: strict})
}

// suiteErrorCode picks the JSON error code for a loadSuite failure.
func suiteErrorCode(err error) string {
	var pe *rules.ParseError
	if errors.As(err, &pe) {
		return ErrCodeRuleSyntax
	}
	var se *harness.SuiteError
	if errors.As(err, &se) {
		return ErrCodeSuiteInvalid
	}
	return ErrCodeNotFound
}

// readInput reads the named file, or stdin when name is "-".
func readInput(name string, stdin io.Reader) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
