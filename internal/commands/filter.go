package commands

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	tagRe       = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	macroNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+`)
)

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isQuote(c byte) bool {
	return c == '"' || c == '\'' || c == '`'
}

// skipQuoted returns the index just past the string literal opened at i.
// Backslash escapes are honoured except in backtick strings.
func skipQuoted(code string, i int) int {
	quote := code[i]
	for j := i + 1; j < len(code); j++ {
		switch {
		case code[j] == '\\' && quote != '`':
			j++
		case code[j] == quote:
			return j + 1
		}
	}

	return len(code)
}

// expandMacros replaces @name references with the parenthesised macro body.
// Only an '@' that starts a token outside of string literals is a macro.
func expandMacros(code string, macros map[string]string) (string, error) {
	var (
		sb      strings.Builder
		missing []string
	)

	for i := 0; i < len(code); {
		c := code[i]

		switch {
		case isQuote(c):
			end := skipQuoted(code, i)
			sb.WriteString(code[i:end])
			i = end
			continue
		case c == '@' && (i == 0 || isSpace(code[i-1]) || code[i-1] == '(' || code[i-1] == '!'):
			if name := macroNameRe.FindString(code[i+1:]); name != "" {
				body, ok := macros[name]
				if !ok {
					missing = append(missing, name)
				}
				sb.WriteString("(" + body + ")")
				i += 1 + len(name)
				continue
			}
		}

		sb.WriteByte(c)
		i++
	}

	if len(missing) > 0 {
		return "", fmt.Errorf("undefined macro(s): %s", strings.Join(missing, ", "))
	}

	return sb.String(), nil
}

// expandTagShortcuts pulls +tag and !tag tokens out of the input and returns
// the remaining expression along with the tag expressions they expand to.
// A shortcut must be a whole whitespace separated token outside of string
// literals; everything else is passed through with its spacing intact.
func expandTagShortcuts(code string) (string, []string) {
	var (
		rest     strings.Builder
		tagExprs []string
	)

	for i := 0; i < len(code); {
		c := code[i]

		switch {
		case isQuote(c):
			end := skipQuoted(code, i)
			rest.WriteString(code[i:end])
			i = end
			continue
		case (c == '+' || c == '!') && (i == 0 || isSpace(code[i-1])):
			end := i + 1
			for end < len(code) && !isSpace(code[end]) {
				end++
			}

			if tag := code[i+1 : end]; tagRe.MatchString(tag) {
				if c == '+' {
					tagExprs = append(tagExprs, fmt.Sprintf("%q in tags", tag))
				} else {
					tagExprs = append(tagExprs, fmt.Sprintf("not (%q in tags)", tag))
				}

				for end < len(code) && isSpace(code[end]) {
					end++
				}
				i = end
				continue
			}
		}

		rest.WriteByte(c)
		i++
	}

	return strings.TrimSpace(rest.String()), tagExprs
}

// compileExpr expands macros and tag shortcuts and compiles the result once
// for reuse. An empty expression matches everything.
func compileExpr(code string, macros map[string]string) (*vm.Program, error) {
	code, err := expandMacros(code, macros)
	if err != nil {
		return nil, err
	}

	rest, parts := expandTagShortcuts(code)
	if rest != "" {
		parts = append(parts, "("+rest+")")
	}

	code = strings.Join(parts, " && ")
	if code == "" {
		code = "true" // default: match everything
	}

	return expr.Compile(code, expr.AsBool())
}

// evalCompiledExpr evaluates a pre-compiled expression with given context
func evalCompiledExpr(program *vm.Program, env map[string]any) (bool, error) {
	output, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	// expr.AsBool() ensures output is always bool
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to boolean, got %T", output)
	}

	return result, nil
}
