package render

// Preset describes one render quality tier of the animation engine.
type Preset struct {
	Key        string
	Resolution string
	FrameRate  int
}

// Quality tiers accepted on job submission. Keys follow the engine's
// single-letter quality flags.
var presets = map[string]Preset{
	"l": {Key: "l", Resolution: "480p15", FrameRate: 15},
	"m": {Key: "m", Resolution: "720p30", FrameRate: 30},
	"h": {Key: "h", Resolution: "1080p60", FrameRate: 60},
	"p": {Key: "p", Resolution: "1440p60", FrameRate: 60},
	"k": {Key: "k", Resolution: "2160p60", FrameRate: 60},
}

// DefaultQuality is used when a job does not specify one.
const DefaultQuality = "m"

// PresetFor resolves a quality key, defaulting to medium for unknown keys.
func PresetFor(key string) Preset {
	if preset, ok := presets[key]; ok {
		return preset
	}
	return presets[DefaultQuality]
}

// ValidQuality reports whether key names a known tier.
func ValidQuality(key string) bool {
	_, ok := presets[key]
	return ok
}
