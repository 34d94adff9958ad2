package types

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestEnvString(t *testing.T) {
	t.Setenv("MW_TEST_FOO", "bar")

	var out struct {
		Password EnvString `yaml:"password"`
	}

	err := yaml.Unmarshal([]byte("password: ${MW_TEST_FOO}\n"), &out)
	if err != nil {
		t.Error(err)
	}
	if out.Password != "bar" {
		t.Errorf("expected %s got %s", "bar", out.Password)
	}

	err = yaml.Unmarshal([]byte("password: plaintext\n"), &out)
	if err != nil {
		t.Error(err)
	}
	if out.Password != "plaintext" {
		t.Errorf("expected %s got %s", "plaintext", out.Password)
	}

	err = yaml.Unmarshal([]byte("password: \"\"\n"), &out)
	if err != nil {
		t.Error(err)
	}
	if out.Password != "" {
		t.Errorf("expected empty string got %s", out.Password)
	}
}
