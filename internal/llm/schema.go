package llm

const (
	tempoMinSchema = 40
	tempoMaxSchema = 200

	velocityMin = 0.0
	velocityMax = 1.0
	wetMin      = 0.0
	wetMax      = 1.0
	scoreMin    = 0.0
	scoreMax    = 1.0
)

// GetGenerationOutputSchema returns the JSON schema for a generation step.
// The provider MUST enforce this so responses decode into the same shape
// the local engine produces: params + reasoning + fitness (+ mutations).
func GetGenerationOutputSchema() map[string]any {
	number01 := func() map[string]any {
		return map[string]any{"type": "number", "minimum": wetMin, "maximum": wetMax}
	}
	stringArray := func() map[string]any {
		return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"params": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tempo": map[string]any{"type": "number", "minimum": tempoMinSchema, "maximum": tempoMaxSchema},
					"key": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"root":  map[string]any{"type": "string"},
							"minor": map[string]any{"type": "boolean"},
						},
						"required":             []string{"root", "minor"},
						"additionalProperties": false,
					},
					"scale": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
					"timeSignature": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"beats": map[string]any{"type": "integer", "minimum": 1},
							"unit":  map[string]any{"type": "integer", "minimum": 1},
						},
						"required":             []string{"beats", "unit"},
						"additionalProperties": false,
					},
					"effects": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"reverb": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"roomSize":  number01(),
									"dampening": number01(),
									"wet":       number01(),
								},
								"required":             []string{"roomSize", "dampening", "wet"},
								"additionalProperties": false,
							},
							"delay": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"time":     map[string]any{"type": "string"},
									"feedback": number01(),
									"wet":      number01(),
								},
								"required":             []string{"time", "feedback", "wet"},
								"additionalProperties": false,
							},
							"filter": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"cutoff":  map[string]any{"type": "number", "minimum": 20},
									"type":    map[string]any{"type": "string", "enum": []string{"lowpass", "bandpass"}},
									"rolloff": map[string]any{"type": "integer", "enum": []int{-12, -24}},
								},
								"required":             []string{"cutoff", "type", "rolloff"},
								"additionalProperties": false,
							},
						},
						"required":             []string{"reverb", "delay", "filter"},
						"additionalProperties": false,
					},
					"synths": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"role":       map[string]any{"type": "string"},
								"oscillator": map[string]any{"type": "string", "enum": []string{"sine", "triangle", "sawtooth", "square", "noise"}},
								"envelope": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"attack":  map[string]any{"type": "number", "minimum": 0},
										"decay":   map[string]any{"type": "number", "minimum": 0},
										"sustain": number01(),
										"release": map[string]any{"type": "number", "minimum": 0},
									},
									"required":             []string{"attack", "decay", "sustain", "release"},
									"additionalProperties": false,
								},
								"volume": map[string]any{"type": "number"},
							},
							"required":             []string{"role", "oscillator", "envelope", "volume"},
							"additionalProperties": false,
						},
					},
					"patterns": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"name":       map[string]any{"type": "string"},
								"notes":      stringArray(),
								"durations":  stringArray(),
								"velocities": map[string]any{"type": "array", "items": map[string]any{"type": "number", "minimum": velocityMin, "maximum": velocityMax}},
								"offsets":    map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
							},
							"required":             []string{"name", "notes", "durations", "velocities", "offsets"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []string{"tempo", "key", "scale", "timeSignature", "effects", "synths", "patterns"},
				"additionalProperties": false,
			},
			"reasoning": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"analysis":   map[string]any{"type": "string"},
					"intention":  map[string]any{"type": "string"},
					"strategy":   map[string]any{"type": "string"},
					"reflection": map[string]any{"type": "string"},
				},
				"required":             []string{"analysis", "intention", "strategy", "reflection"},
				"additionalProperties": false,
			},
			"fitness": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"emotionalResonance": map[string]any{"type": "number", "minimum": scoreMin, "maximum": scoreMax},
					"coherence":          map[string]any{"type": "number", "minimum": scoreMin, "maximum": scoreMax},
					"interest":           map[string]any{"type": "number", "minimum": scoreMin, "maximum": scoreMax},
					"surprise":           map[string]any{"type": "number", "minimum": scoreMin, "maximum": scoreMax},
					"technicalQuality":   map[string]any{"type": "number", "minimum": scoreMin, "maximum": scoreMax},
				},
				"required":             []string{"emotionalResonance", "coherence", "interest", "surprise", "technicalQuality"},
				"additionalProperties": false,
			},
			"mutations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
					"enum": []string{"harmonic", "rhythmic", "timbral", "structural", "textural", "radical"},
				},
			},
		},
		"required":             []string{"params", "reasoning", "fitness", "mutations"},
		"additionalProperties": false,
	}
}
