package prompts

import (
	"fmt"
	"sort"
	"strings"

	"shotforge/internal/logging"
)

// System prompts sent as the first chat message.
const (
	VisionSystem     = "You are a professional image analysis assistant. You turn pictures into detailed descriptions that an AI image generator can work from."
	GenerationSystem = "You are a professional image generation assistant. You produce high quality images from prompts."
)

// Keys of the built-in vision instructions.
const (
	VisionBasic     = "vision_basic"
	VisionNoFace    = "vision_no_face"
	VisionArtistic  = "vision_artistic"
	VisionLandscape = "vision_landscape"
	VisionObject    = "vision_object"
)

// Keys of the built-in generation presets.
const (
	DefaultGeneration = "default_generation"
	KeepComposition   = "keep_composition"
	ParkScene         = "park_scene"
	NatureScene       = "nature_scene"
	CityScene         = "city_scene"
	IndoorScene       = "indoor_scene"
)

// Fallback defaults used when the vision service returns nothing.
const (
	DefaultScene = "park"
	DefaultExtra = "and the types of facilities must not change either"
)

var visionInstructions = map[string]string{
	VisionBasic: "Analyze this picture and write a detailed description for AI image generation. " +
		"Cover the main content, the scene, the style, the colors and the mood.",
	VisionNoFace: "Analyze this picture and write a detailed description for AI image generation. " +
		"Cover the main content, the scene, the style, the colors and the mood, " +
		"but do not describe anyone's facial features.",
	VisionArtistic: "Analyze this picture and write a detailed artistic description for AI image generation. " +
		"Cover the main content, the scene, the artistic style, the colors and the mood, " +
		"with emphasis on technique and aesthetics.",
	VisionLandscape: "Analyze this landscape picture and write a detailed description for AI image generation. " +
		"Cover the main elements, terrain, season, weather, lighting, colors and mood.",
	VisionObject: "Analyze this picture of an object and write a detailed description for AI image generation. " +
		"Cover its appearance, material, color, shape, function and style.",
}

var generationPresets = map[string]string{
	DefaultGeneration: "Create an artistic version of this picture with richer colors and detail.",
	KeepComposition: "Create an artistic version of this picture. Keep the original composition and the " +
		"positions of the main elements, but improve the artistry and beauty of the image.",
	ParkScene: Fallback(DefaultScene, DefaultExtra),
	NatureScene: "Create a natural landscape image based on this picture. Strengthen the natural elements " +
		"and use richer color and lighting while keeping the original composition.",
	CityScene: "Create a city scene image based on this picture. Strengthen the architectural detail and " +
		"urban atmosphere and use richer color and lighting while keeping the original composition.",
	IndoorScene: "Create an indoor scene image based on this picture. Strengthen the interior decoration " +
		"and atmosphere and use richer color and lighting while keeping the original composition.",
}

// VisionToImage turns a vision description into a generation prompt.
func VisionToImage(visionResult string) string {
	return fmt.Sprintf("%s Keep the original composition and the positions of the main elements, "+
		"but improve the artistry and beauty of the image.", strings.TrimSpace(visionResult))
}

// Fallback builds the prompt used when no vision description is available.
func Fallback(scene, extra string) string {
	return fmt.Sprintf("Create a %s image based on this picture. The composition must not change "+
		"and the main subjects must stay in similar positions, %s.", scene, extra)
}

// DefaultFallback is Fallback(DefaultScene, DefaultExtra).
func DefaultFallback() string {
	return Fallback(DefaultScene, DefaultExtra)
}

// Combine returns VisionToImage for a non-empty vision result and the
// fallback prompt otherwise. The bool reports whether the fallback was used.
func Combine(visionResult, scene, extra string) (string, bool) {
	if strings.TrimSpace(visionResult) != "" {
		return VisionToImage(visionResult), false
	}
	if scene == "" {
		scene = DefaultScene
	}
	if extra == "" {
		extra = DefaultExtra
	}
	return Fallback(scene, extra), true
}

// CustomStyle renders a description in a named style, e.g. "oil painting".
func CustomStyle(base, style, extra string) string {
	if style == "" {
		style = "photorealistic"
	}
	prompt := fmt.Sprintf("%s, in %s style", strings.TrimSpace(base), style)
	if extra = strings.TrimSpace(extra); extra != "" {
		prompt += ", " + extra
	}
	return prompt
}

// VisionInstruction returns the instruction for key, falling back to
// VisionBasic with a warning when key is unknown.
func VisionInstruction(key string) string {
	if p, ok := visionInstructions[key]; ok {
		return p
	}
	logging.Warn("Unknown vision prompt %q, using %s", key, VisionBasic)
	return visionInstructions[VisionBasic]
}

// GenerationPrompt returns the preset for key, falling back to
// DefaultGeneration with a warning when key is unknown.
func GenerationPrompt(key string) string {
	if p, ok := generationPresets[key]; ok {
		return p
	}
	logging.Warn("Unknown generation preset %q, using %s", key, DefaultGeneration)
	return generationPresets[DefaultGeneration]
}

// HasVisionInstruction reports whether key names a built-in instruction.
func HasVisionInstruction(key string) bool {
	_, ok := visionInstructions[key]
	return ok
}

// Preset is a named prompt exposed to the dashboard.
type Preset struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
}

// Presets lists the generation presets sorted by key.
func Presets() []Preset {
	return sortedPresets(generationPresets)
}

// VisionInstructions lists the vision instructions sorted by key.
func VisionInstructions() []Preset {
	return sortedPresets(visionInstructions)
}

func sortedPresets(m map[string]string) []Preset {
	out := make([]Preset, 0, len(m))
	for k, v := range m {
		out = append(out, Preset{Key: k, Prompt: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
