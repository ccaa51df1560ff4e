package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/core_data/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/core_data/output_format_instructions.txt
var OutputFormatInstructionsTxt []byte

//go:embed data/core_data/iteration_instructions.txt
var IterationInstructionsTxt []byte

//go:embed data/core_data/emotion_scale_heuristics.csv
var EmotionScaleHeuristicsCsv []byte
