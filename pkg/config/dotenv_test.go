package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile_SetsSimpleKeyValuePairs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DOMINDS_TEST_FOO=bar\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	diags := loadEnvFile(path)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if got := os.Getenv("DOMINDS_TEST_FOO"); got != "bar" {
		t.Errorf("DOMINDS_TEST_FOO = %q, want %q", got, "bar")
	}
}

func TestLoadEnvFile_SkipsBlankLinesAndComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "\n# a comment\nDOMINDS_TEST_BAZ=qux\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	diags := loadEnvFile(path)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if got := os.Getenv("DOMINDS_TEST_BAZ"); got != "qux" {
		t.Errorf("DOMINDS_TEST_BAZ = %q, want %q", got, "qux")
	}
}

func TestLoadEnvFile_StripsExportPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("export DOMINDS_TEST_EXPORTED=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loadEnvFile(path)
	if got := os.Getenv("DOMINDS_TEST_EXPORTED"); got != "1" {
		t.Errorf("DOMINDS_TEST_EXPORTED = %q, want %q", got, "1")
	}
}

func TestLoadEnvFile_CollectsDiagnosticsRatherThanAborting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "no_equals_sign\n=no_key\n1bad_key=x\nDOMINDS_TEST_GOOD=y\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	diags := loadEnvFile(path)
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d: %+v", len(diags), diags)
	}
	if diags[0].Reason != "missing_equals" {
		t.Errorf("diags[0].Reason = %q, want %q", diags[0].Reason, "missing_equals")
	}
	if diags[1].Reason != "empty_key" {
		t.Errorf("diags[1].Reason = %q, want %q", diags[1].Reason, "empty_key")
	}
	if diags[2].Reason != "invalid_key" {
		t.Errorf("diags[2].Reason = %q, want %q", diags[2].Reason, "invalid_key")
	}
	if got := os.Getenv("DOMINDS_TEST_GOOD"); got != "y" {
		t.Errorf("a malformed line should not stop later valid lines from loading, got %q", got)
	}
}

func TestLoadEnvFile_MissingFileReturnsNoDiagnostics(t *testing.T) {
	diags := loadEnvFile(filepath.Join(t.TempDir(), "does-not-exist.env"))
	if diags != nil {
		t.Errorf("expected nil diagnostics for a missing file, got %+v", diags)
	}
}

func TestParseDotenvValue_DoubleQuotedExpandsEscapes(t *testing.T) {
	if got := parseDotenvValue(`"line1\nline2"`); got != "line1\nline2" {
		t.Errorf("parseDotenvValue = %q, want escaped newline", got)
	}
}

func TestParseDotenvValue_SingleQuotedIsLiteral(t *testing.T) {
	if got := parseDotenvValue(`'no\nescape'`); got != `no\nescape` {
		t.Errorf("parseDotenvValue = %q, want literal", got)
	}
}

func TestParseDotenvValue_UnquotedStripsTrailingComment(t *testing.T) {
	if got := parseDotenvValue("value # a trailing comment"); got != "value" {
		t.Errorf("parseDotenvValue = %q, want %q", got, "value")
	}
}

func TestParseDotenvValue_HashWithoutLeadingSpaceIsNotAComment(t *testing.T) {
	if got := parseDotenvValue("val#ue"); got != "val#ue" {
		t.Errorf("parseDotenvValue = %q, want unchanged", got)
	}
}
