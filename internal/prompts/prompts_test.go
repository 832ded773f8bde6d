package prompts

import (
	"strings"
	"testing"
)

func TestFallbackMatchesParkPreset(t *testing.T) {
	got := Fallback(DefaultScene, DefaultExtra)
	if got != GenerationPrompt(ParkScene) {
		t.Errorf("Fallback(default) = %q, want the park preset %q", got, GenerationPrompt(ParkScene))
	}
	if got != DefaultFallback() {
		t.Errorf("DefaultFallback() = %q, want %q", DefaultFallback(), got)
	}
}

func TestCombine(t *testing.T) {
	tests := []struct {
		name         string
		vision       string
		scene        string
		extra        string
		wantFallback bool
		wantContains string
	}{
		{
			name:         "vision result",
			vision:       "A quiet street at dusk.",
			wantFallback: false,
			wantContains: "A quiet street at dusk. Keep the original composition",
		},
		{
			name:         "empty vision uses defaults",
			vision:       "",
			wantFallback: true,
			wantContains: "Create a park image",
		},
		{
			name:         "whitespace vision counts as empty",
			vision:       "  \n ",
			wantFallback: true,
			wantContains: DefaultExtra,
		},
		{
			name:         "custom scene",
			vision:       "",
			scene:        "city",
			extra:        "keep the building styles",
			wantFallback: true,
			wantContains: "Create a city image based on this picture. The composition must not change and the main subjects must stay in similar positions, keep the building styles.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback := Combine(tt.vision, tt.scene, tt.extra)
			if fallback != tt.wantFallback {
				t.Errorf("Combine() fallback = %v, want %v", fallback, tt.wantFallback)
			}
			if !strings.Contains(got, tt.wantContains) {
				t.Errorf("Combine() = %q, want it to contain %q", got, tt.wantContains)
			}
		})
	}
}

func TestCombineDefaultEqualsFallback(t *testing.T) {
	got, _ := Combine("", "", "")
	if got != DefaultFallback() {
		t.Errorf("Combine(\"\") = %q, want %q", got, DefaultFallback())
	}
}

func TestCustomStyle(t *testing.T) {
	tests := []struct {
		base, style, extra string
		want               string
	}{
		{"A mountain and a lake", "oil painting", "use bright colors", "A mountain and a lake, in oil painting style, use bright colors"},
		{"A mountain and a lake", "watercolor", "", "A mountain and a lake, in watercolor style"},
		{"A cat", "", "", "A cat, in photorealistic style"},
	}

	for _, tt := range tests {
		if got := CustomStyle(tt.base, tt.style, tt.extra); got != tt.want {
			t.Errorf("CustomStyle(%q, %q, %q) = %q, want %q", tt.base, tt.style, tt.extra, got, tt.want)
		}
	}
}

func TestLookupFallbacks(t *testing.T) {
	if got := VisionInstruction("nope"); got != VisionInstruction(VisionBasic) {
		t.Errorf("VisionInstruction(unknown) = %q, want basic", got)
	}
	if got := GenerationPrompt("nope"); got != GenerationPrompt(DefaultGeneration) {
		t.Errorf("GenerationPrompt(unknown) = %q, want default", got)
	}
	if !strings.Contains(VisionInstruction(VisionNoFace), "facial features") {
		t.Error("no-face instruction should exclude facial features")
	}
}

func TestPresetsSorted(t *testing.T) {
	presets := Presets()
	if len(presets) != 6 {
		t.Fatalf("Presets() returned %d entries, want 6", len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1].Key >= presets[i].Key {
			t.Errorf("Presets() not sorted at %d: %s >= %s", i, presets[i-1].Key, presets[i].Key)
		}
	}
	if len(VisionInstructions()) != 5 {
		t.Errorf("VisionInstructions() returned %d entries, want 5", len(VisionInstructions()))
	}
	if !HasVisionInstruction(VisionObject) || HasVisionInstruction("x") {
		t.Error("HasVisionInstruction() mismatch")
	}
}
