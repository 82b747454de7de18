package config

import (
	"os"
	"testing"
)

func TestExpandEnvVars_Braced(t *testing.T) {
	t.Setenv("DOMINDS_TEST_VAR", "hector")
	if got := expandEnvVars("hello ${DOMINDS_TEST_VAR}"); got != "hello hector" {
		t.Errorf("expandEnvVars = %q, want %q", got, "hello hector")
	}
}

func TestExpandEnvVars_Simple(t *testing.T) {
	t.Setenv("DOMINDS_TEST_VAR", "hector")
	if got := expandEnvVars("hello $DOMINDS_TEST_VAR"); got != "hello hector" {
		t.Errorf("expandEnvVars = %q, want %q", got, "hello hector")
	}
}

func TestExpandEnvVars_WithDefaultUsesFallbackWhenUnset(t *testing.T) {
	os.Unsetenv("DOMINDS_TEST_UNSET_VAR")
	if got := expandEnvVars("${DOMINDS_TEST_UNSET_VAR:-fallback}"); got != "fallback" {
		t.Errorf("expandEnvVars = %q, want %q", got, "fallback")
	}
}

func TestExpandEnvVars_WithDefaultPrefersSetValue(t *testing.T) {
	t.Setenv("DOMINDS_TEST_VAR", "hector")
	if got := expandEnvVars("${DOMINDS_TEST_VAR:-fallback}"); got != "hector" {
		t.Errorf("expandEnvVars = %q, want %q", got, "hector")
	}
}

func TestExpandEnvVars_NoDollarSignIsAPassthrough(t *testing.T) {
	if got := expandEnvVars("no vars here"); got != "no vars here" {
		t.Errorf("expandEnvVars = %q, want input unchanged", got)
	}
}

func TestParseValue_RetypesBoolsAndNumbers(t *testing.T) {
	cases := map[string]interface{}{
		"true":  true,
		"false": false,
		"42":    42,
		"3.14":  3.14,
		"hello": "hello",
	}
	for in, want := range cases {
		if got := parseValue(in); got != want {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", in, got, got, want, want)
		}
	}
}

func TestExpandEnvVarsInData_RecursesThroughMapsAndSlices(t *testing.T) {
	t.Setenv("DOMINDS_TEST_PORT", "9090")
	data := map[string]interface{}{
		"server": map[string]interface{}{
			"port": "${DOMINDS_TEST_PORT}",
		},
		"tags": []interface{}{"a", "${DOMINDS_TEST_PORT}"},
	}

	out := ExpandEnvVarsInData(data).(map[string]interface{})
	server := out["server"].(map[string]interface{})
	if server["port"] != 9090 {
		t.Errorf("server.port = %v (%T), want int 9090", server["port"], server["port"])
	}
	tags := out["tags"].([]interface{})
	if tags[0] != "a" {
		t.Errorf("tags[0] = %v, want %q", tags[0], "a")
	}
	if tags[1] != 9090 {
		t.Errorf("tags[1] = %v, want int 9090", tags[1])
	}
}
