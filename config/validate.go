package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/jmgilman/go/rio/errors"
)

// Issue is a single schema violation.
type Issue struct {
	// Path is the dotted field path, e.g. "schemes.s3.endpoint".
	Path string `json:"path"`

	// Message describes the violation.
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// validate checks that v is concrete and satisfies the schema, reporting every
// violation at once.
func validate(v cue.Value) error {
	err := v.Validate(cue.Concrete(true), cue.Final(), cue.All())
	if err == nil {
		return nil
	}

	issues := extractIssues(err)
	msg := "configuration is invalid"
	if len(issues) > 0 {
		msg = fmt.Sprintf("configuration is invalid: %s", issues[0])
	}
	return errors.WrapWithContext(err, errors.CodeInvalidConfig, msg, map[string]interface{}{
		"issues":  issues,
		"details": cueerrors.Details(err, nil),
	})
}

func extractIssues(err error) []Issue {
	var issues []Issue
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		issues = append(issues, Issue{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return issues
}
