package retarget

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "single placeholder",
			template: "Hi {name}!",
			vars:     map[string]string{"name": "Alice"},
			want:     "Hi Alice!",
		},
		{
			name:     "repeated placeholder",
			template: "{name}, yes you, {name}",
			vars:     map[string]string{"name": "Bob"},
			want:     "Bob, yes you, Bob",
		},
		{
			name:     "unknown placeholder left intact",
			template: "Hi {name}, your {thing} is ready",
			vars:     map[string]string{"name": "Alice"},
			want:     "Hi Alice, your {thing} is ready",
		},
		{
			name:     "no placeholders",
			template: "plain text",
			vars:     map[string]string{"name": "Alice"},
			want:     "plain text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.template, tt.vars); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEducationalTipsPool(t *testing.T) {
	if len(EducationalTips) <= RecentMessageWindow {
		t.Errorf("pool of %d tips cannot outrun the repeat window of %d", len(EducationalTips), RecentMessageWindow)
	}
	seen := make(map[string]bool)
	for _, tip := range EducationalTips {
		if !strings.Contains(tip, "{name}") {
			t.Errorf("tip missing name placeholder: %s", tip)
		}
		if seen[tip] {
			t.Errorf("duplicate tip: %s", tip)
		}
		seen[tip] = true
	}
}
