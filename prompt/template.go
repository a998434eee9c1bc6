package prompt

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

//go:embed templates/*.md
var builtinFS embed.FS

var (
	varRe      = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)
	ifOpenRe   = regexp.MustCompile(`\{\{#if\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)
	ifCloseStr = "{{/if}}"
)

// Vars maps placeholder names to their substitution values.
type Vars map[string]string

// MissingPlaceholderError reports template variables that were referenced but
// not supplied.
type MissingPlaceholderError struct {
	Template string
	Names    []string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("template %q: missing variables: %s", e.Template, strings.Join(e.Names, ", "))
}

// Store loads named templates, preferring overrides in Dir (when set) over the
// embedded built-ins.
type Store struct {
	Dir string
}

// Get returns the raw template text for name. Override files live at
// <Dir>/<name>.md; built-ins are compiled in.
func (s *Store) Get(name string) (string, error) {
	if s.Dir != "" {
		path := filepath.Join(s.Dir, name+".md")
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}
	data, err := builtinFS.ReadFile("templates/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("template %q not found: %w", name, err)
	}
	return string(data), nil
}

// GetAndRender loads a template and renders it in one step.
func (s *Store) GetAndRender(name string, vars Vars) (string, error) {
	tmpl, err := s.Get(name)
	if err != nil {
		return "", err
	}
	out, err := Render(tmpl, vars)
	if err != nil {
		if me, ok := err.(*MissingPlaceholderError); ok {
			me.Template = name
		}
		return "", err
	}
	return out, nil
}

// Render expands a template with the given variables. {{name}} is replaced
// with its value; a referenced variable with no value is an error.
// {{#if name}}...{{/if}} blocks are kept only when the variable is non-empty.
func Render(tmpl string, vars Vars) (string, error) {
	result, err := processConditionals(tmpl, vars)
	if err != nil {
		return "", err
	}

	var missing []string
	expanded := varRe.ReplaceAllStringFunc(result, func(match string) string {
		m := varRe.FindStringSubmatch(match)
		if m == nil {
			return match
		}
		if val, ok := vars[m[1]]; ok {
			return val
		}
		missing = append(missing, m[1])
		return match
	})

	if len(missing) > 0 {
		return "", &MissingPlaceholderError{Names: missing}
	}
	return expanded, nil
}

// processConditionals resolves {{#if var}}...{{/if}} blocks, innermost first,
// so nesting works.
func processConditionals(tmpl string, vars Vars) (string, error) {
	result := tmpl
	for {
		closeIdx := strings.Index(result, ifCloseStr)
		if closeIdx == -1 {
			break
		}

		prefix := result[:closeIdx]
		openLocs := ifOpenRe.FindAllStringIndex(prefix, -1)
		if openLocs == nil {
			return "", fmt.Errorf("dangling %s without matching {{#if}}", ifCloseStr)
		}

		lastOpen := openLocs[len(openLocs)-1]
		openTag := prefix[lastOpen[0]:lastOpen[1]]
		m := ifOpenRe.FindStringSubmatch(openTag)
		if m == nil {
			return "", fmt.Errorf("failed to parse conditional tag: %s", openTag)
		}

		body := result[lastOpen[1]:closeIdx]
		var replacement string
		if val, ok := vars[m[1]]; ok && val != "" {
			replacement = body
		}
		result = result[:lastOpen[0]] + replacement + result[closeIdx+len(ifCloseStr):]
	}

	if ifOpenRe.MatchString(result) {
		return "", fmt.Errorf("unclosed conditional block: %s", ifOpenRe.FindString(result))
	}
	return result, nil
}
