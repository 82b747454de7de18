package config

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// DotenvDiagnostic describes a single line of a .env file that could not
// be parsed. Unlike the teacher's godotenv.Load, a bad line never aborts
// the whole file: it is reported here and parsing continues.
type DotenvDiagnostic struct {
	File       string
	LineNumber int
	Raw        string
	Reason     string // missing_equals | empty_key | invalid_key
}

var dotenvKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadEnvFiles loads ".env" then ".env.local" from the working directory,
// with later files overriding earlier ones; every parsed key is set with
// os.Setenv, so it also overrides a value the process environment already
// had. It never returns an error: missing files are
// skipped, and malformed lines are collected into the returned diagnostics
// rather than aborting the load.
func LoadEnvFiles() []DotenvDiagnostic {
	var diags []DotenvDiagnostic
	for _, file := range []string{".env", ".env.local"} {
		fileDiags := loadEnvFile(file)
		diags = append(diags, fileDiags...)
	}
	return diags
}

func loadEnvFile(path string) []DotenvDiagnostic {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var diags []DotenvDiagnostic
	scanner := bufio.NewScanner(f)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		line = strings.TrimSpace(line)

		eq := strings.Index(line, "=")
		if eq < 0 {
			diags = append(diags, DotenvDiagnostic{File: path, LineNumber: lineNumber, Raw: raw, Reason: "missing_equals"})
			continue
		}

		key := strings.TrimSpace(line[:eq])
		if key == "" {
			diags = append(diags, DotenvDiagnostic{File: path, LineNumber: lineNumber, Raw: raw, Reason: "empty_key"})
			continue
		}
		if !dotenvKeyPattern.MatchString(key) {
			diags = append(diags, DotenvDiagnostic{File: path, LineNumber: lineNumber, Raw: raw, Reason: "invalid_key"})
			continue
		}

		value := parseDotenvValue(line[eq+1:])
		os.Setenv(key, value)
	}
	return diags
}

// parseDotenvValue strips surrounding quotes (expanding escapes for
// double-quoted values, treating single-quoted values as literal) and, for
// unquoted values, strips a trailing "# ..." comment when it's preceded by
// whitespace.
func parseDotenvValue(raw string) string {
	v := strings.TrimSpace(raw)

	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return unescapeDoubleQuoted(v[1 : len(v)-1])
	}
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return v[1 : len(v)-1]
	}

	if idx := strings.Index(v, "#"); idx > 0 && (v[idx-1] == ' ' || v[idx-1] == '\t') {
		v = strings.TrimRight(v[:idx], " \t")
	}
	return v
}

func unescapeDoubleQuoted(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				sb.WriteByte('\n')
				i++
				continue
			case 'r':
				sb.WriteByte('\r')
				i++
				continue
			case 't':
				sb.WriteByte('\t')
				i++
				continue
			case '\\':
				sb.WriteByte('\\')
				i++
				continue
			case '"':
				sb.WriteByte('"')
				i++
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
