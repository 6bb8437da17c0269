package models

// Stage is one named unit of tracked progress.
type Stage string

const (
	StagePhotoAnalysis      Stage = "photo_analysis"
	StageReverseImageSearch Stage = "reverse_image_search"
	StageCourtCases         Stage = "court_cases"
	StageMatrimonial        Stage = "matrimonial_profiles"
	StageDating             Stage = "dating_profiles"
	StageSocial             Stage = "social_media"
	StageRiskCalculation    Stage = "risk_calculation"
)

// AllStages lists every stage in plan order.
var AllStages = []Stage{
	StagePhotoAnalysis,
	StageReverseImageSearch,
	StageCourtCases,
	StageMatrimonial,
	StageDating,
	StageSocial,
	StageRiskCalculation,
}

// EvidenceStages are the independent collector stages run concurrently.
var EvidenceStages = []Stage{
	StageCourtCases,
	StageMatrimonial,
	StageDating,
	StageSocial,
}

// Progress tracks per-stage completion and the derived overall value.
type Progress struct {
	Overall int           `json:"overall"`
	Stages  map[Stage]int `json:"stages"`
}

// NewProgress initialises all stages. Photo stages that will not run are
// pre-set to 100.
func NewProgress(input SubjectInput) Progress {
	p := Progress{Stages: make(map[Stage]int, len(AllStages))}
	for _, s := range AllStages {
		p.Stages[s] = 0
	}
	if !input.HasPhoto() {
		p.Stages[StagePhotoAnalysis] = 100
	}
	if !input.IsPhotoOnly() {
		p.Stages[StageReverseImageSearch] = 100
	}
	p.recompute()
	return p
}

// Set records a stage value clamped to [0,100] and recomputes Overall.
func (p *Progress) Set(stage Stage, value int) {
	if p.Stages == nil {
		p.Stages = make(map[Stage]int)
	}
	p.Stages[stage] = clampPercent(value)
	p.recompute()
}

// Overall is the floor of the mean of all stage values.
func (p *Progress) recompute() {
	if len(p.Stages) == 0 {
		p.Overall = 0
		return
	}
	sum := 0
	for _, v := range p.Stages {
		sum += v
	}
	p.Overall = sum / len(p.Stages)
}

// Done reports whether the stage has reached 100.
func (p Progress) Done(stage Stage) bool {
	return p.Stages[stage] >= 100
}

// Clone returns a copy with its own stage map.
func (p Progress) Clone() Progress {
	out := Progress{Overall: p.Overall, Stages: make(map[Stage]int, len(p.Stages))}
	for k, v := range p.Stages {
		out.Stages[k] = v
	}
	return out
}

func clampPercent(v int) int {
	return min(max(v, 0), 100)
}
