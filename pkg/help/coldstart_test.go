package help

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestColdstartYAML_Parses(t *testing.T) {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(ColdstartYAML), &doc); err != nil {
		t.Fatalf("ColdstartYAML is not valid YAML: %v", err)
	}

	for _, section := range []string{"input_format", "verbs", "commands", "db_commands", "error_behavior"} {
		if _, ok := doc[section]; !ok {
			t.Errorf("ColdstartYAML missing section %q", section)
		}
	}
}
