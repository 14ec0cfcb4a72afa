package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/prompts/track_planner_prompt.txt
var TrackPlannerPromptTxt []byte

//go:embed data/core_data/track_plan_format.txt
var TrackPlanFormatTxt []byte
