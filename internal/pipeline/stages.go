package pipeline

// Stage names. The list below is the fixed execution order; stage numbers
// are 1-based and contiguous.
const (
	StageDocumentParsing     = "document_parsing"
	StageQuestionExtraction  = "question_extraction"
	StageQuestionAnalysis    = "question_analysis"
	StageTemplateRouting     = "template_routing"
	StageStrategyCreation    = "strategy_creation"
	StageStoryGeneration     = "story_generation"
	StageBlueprintGeneration = "blueprint_generation"
	StageAssetPlanning       = "asset_planning"
	StageAssetGeneration     = "asset_generation"
)

// Stage is one entry of the fixed pipeline.
type Stage struct {
	Name   string
	Number int
}

// Stages is the fixed, ordered stage list. Progress after stage N
// completes is N/len(Stages)*100.
var Stages = []Stage{
	{Name: StageDocumentParsing, Number: 1},
	{Name: StageQuestionExtraction, Number: 2},
	{Name: StageQuestionAnalysis, Number: 3},
	{Name: StageTemplateRouting, Number: 4},
	{Name: StageStrategyCreation, Number: 5},
	{Name: StageStoryGeneration, Number: 6},
	{Name: StageBlueprintGeneration, Number: 7},
	{Name: StageAssetPlanning, Number: 8},
	{Name: StageAssetGeneration, Number: 9},
}

// StageByName returns the stage definition for a step name, or false when
// the name is not part of the pipeline.
func StageByName(name string) (Stage, bool) {
	for _, stage := range Stages {
		if stage.Name == name {
			return stage, true
		}
	}
	return Stage{}, false
}

// progressAfter computes integer percent progress once the given stage
// number has completed.
func progressAfter(stageNumber int) int {
	return stageNumber * 100 / len(Stages)
}
