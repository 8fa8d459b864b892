package models

// Dimension identifies one scoring dimension
type Dimension string

const (
	DimensionAge           Dimension = "age"
	DimensionLocation      Dimension = "location"
	DimensionCommunity     Dimension = "community"
	DimensionDiet          Dimension = "diet"
	DimensionEducation     Dimension = "education"
	DimensionProfession    Dimension = "profession"
	DimensionMaritalStatus Dimension = "marital_status"
	DimensionHabits        Dimension = "habits"
)

// Dimensions lists every scoring dimension in stable order
func Dimensions() []Dimension {
	return []Dimension{
		DimensionAge,
		DimensionLocation,
		DimensionCommunity,
		DimensionDiet,
		DimensionEducation,
		DimensionProfession,
		DimensionMaritalStatus,
		DimensionHabits,
	}
}

// DimensionScore is the outcome of one scorer for one direction
type DimensionScore struct {
	Score    float64 `json:"score"`     // in [0,1]
	HardFail bool    `json:"hard_fail"` // excludes the pair entirely
}

// DirectionalScore is one viewer->candidate scoring outcome
type DirectionalScore struct {
	Score     int                   `json:"score"` // composite in [0,100]
	Excluded  bool                  `json:"excluded"`
	Breakdown map[Dimension]float64 `json:"breakdown"`
}

// MatchResult is the output of scoring one ordered pair in both directions
type MatchResult struct {
	UserID1     string           `json:"user_id_1"`
	UserID2     string           `json:"user_id_2"`
	ScoreAtoB   DirectionalScore `json:"score_a_to_b"`
	ScoreBtoA   DirectionalScore `json:"score_b_to_a"`
	MutualScore int              `json:"mutual_score"`
	Excluded    bool             `json:"excluded"`
}

// RankedCandidate is one non-excluded candidate in a viewer's ranking
type RankedCandidate struct {
	UserID       string                `json:"user_id"`
	Score        int                   `json:"score"`
	Breakdown    map[Dimension]float64 `json:"breakdown"`
	Completeness int                   `json:"-"`
	LastActiveAt int64                 `json:"-"` // unix seconds, ranking tie-break only
}

// CandidatePage is one page of ranked candidates for a viewer
type CandidatePage struct {
	Candidates      []RankedCandidate `json:"candidates"`
	Page            int               `json:"page"`
	PageSize        int               `json:"page_size"`
	TotalConsidered int               `json:"total_considered"`
	Partial         bool              `json:"partial"`
}

// ComputeMatchScoreRequest is the request body for pair scoring
type ComputeMatchScoreRequest struct {
	UserID1 string `json:"user_id_1" validate:"required,uuid4"`
	UserID2 string `json:"user_id_2" validate:"required,uuid4"`
}
