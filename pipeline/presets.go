package pipeline

// Presets maps a friendly preset name to the regular expression
// extraction pattern it expands to.
var Presets = map[string]string{
	"all":      ".*",
	"data":     `.*\.datc?64$`,
	"textures": `.*\.dds$`,
	"audio":    `.*\.(ogg|wav)$`,
	"ui":       `^art/2dart/.*`,
	"items":    `^art/2ditems/.*`,
	"skills":   `^art/2dart/skillicons/.*`,
	"passives": `^art/2dart/skillicons/passives/.*`,
}
