package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisResult is the fixed shape the scoring model must return. The five
// numeric ratings are each bounded to [0,100]; the contract requires all five
// to be present together or the result is malformed.
type AnalysisResult struct {
	OverallScore        float64  `json:"overallScore"`
	TechnicalSkills     float64  `json:"technicalSkills"`
	PhysicalAttributes  float64  `json:"physicalAttributes"`
	TacticalAwareness   float64  `json:"tacticalAwareness"`
	MentalStrength      float64  `json:"mentalStrength"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	Recommendations     []string `json:"recommendations"`
	DetailedAnalysis    string   `json:"detailedAnalysis"`
	AnalysisVersion     string   `json:"analysisVersion"`
}

// Analysis persists one scoring attempt for a video. Rows are immutable once
// created; a re-score always inserts a new row and reads resolve the newest
// one by created_at.
type Analysis struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VideoID             uuid.UUID      `gorm:"type:uuid;not null;index;column:video_id" json:"video_id"`
	Video               *Video         `gorm:"constraint:OnDelete:CASCADE;foreignKey:VideoID;references:ID" json:"video,omitempty"`
	PlayerID            uuid.UUID      `gorm:"type:uuid;not null;index;column:player_id" json:"player_id"`
	OverallScore        float64        `gorm:"not null;column:overall_score" json:"overall_score"`
	TechnicalSkills     float64        `gorm:"not null;column:technical_skills" json:"technical_skills"`
	PhysicalAttributes  float64        `gorm:"not null;column:physical_attributes" json:"physical_attributes"`
	TacticalAwareness   float64        `gorm:"not null;column:tactical_awareness" json:"tactical_awareness"`
	MentalStrength      float64        `gorm:"not null;column:mental_strength" json:"mental_strength"`
	Strengths           datatypes.JSON `gorm:"column:strengths;type:jsonb" json:"strengths"`
	AreasForImprovement datatypes.JSON `gorm:"column:areas_for_improvement;type:jsonb" json:"areas_for_improvement"`
	Recommendations     datatypes.JSON `gorm:"column:recommendations;type:jsonb" json:"recommendations"`
	DetailedAnalysis    string         `gorm:"column:detailed_analysis" json:"detailed_analysis"`
	AnalysisVersion     string         `gorm:"not null;default:'v1';column:analysis_version" json:"analysis_version"`
	CreatedAt           time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Analysis) TableName() string {
	return "analysis"
}

func (a *Analysis) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NewAnalysisFromResult flattens an AnalysisResult into a row for the given
// video; the string-array fields keep their order through jsonb.
func NewAnalysisFromResult(videoID, playerID uuid.UUID, res *AnalysisResult) (*Analysis, error) {
	strengths, err := json.Marshal(res.Strengths)
	if err != nil {
		return nil, err
	}
	areas, err := json.Marshal(res.AreasForImprovement)
	if err != nil {
		return nil, err
	}
	recs, err := json.Marshal(res.Recommendations)
	if err != nil {
		return nil, err
	}
	version := res.AnalysisVersion
	if version == "" {
		version = "v1"
	}
	return &Analysis{
		VideoID:             videoID,
		PlayerID:            playerID,
		OverallScore:        res.OverallScore,
		TechnicalSkills:     res.TechnicalSkills,
		PhysicalAttributes:  res.PhysicalAttributes,
		TacticalAwareness:   res.TacticalAwareness,
		MentalStrength:      res.MentalStrength,
		Strengths:           datatypes.JSON(strengths),
		AreasForImprovement: datatypes.JSON(areas),
		Recommendations:     datatypes.JSON(recs),
		DetailedAnalysis:    res.DetailedAnalysis,
		AnalysisVersion:     version,
	}, nil
}

// Result reconstructs the value object from a stored row.
func (a *Analysis) Result() (*AnalysisResult, error) {
	res := &AnalysisResult{
		OverallScore:       a.OverallScore,
		TechnicalSkills:    a.TechnicalSkills,
		PhysicalAttributes: a.PhysicalAttributes,
		TacticalAwareness:  a.TacticalAwareness,
		MentalStrength:     a.MentalStrength,
		DetailedAnalysis:   a.DetailedAnalysis,
		AnalysisVersion:    a.AnalysisVersion,
	}
	if len(a.Strengths) > 0 {
		if err := json.Unmarshal(a.Strengths, &res.Strengths); err != nil {
			return nil, err
		}
	}
	if len(a.AreasForImprovement) > 0 {
		if err := json.Unmarshal(a.AreasForImprovement, &res.AreasForImprovement); err != nil {
			return nil, err
		}
	}
	if len(a.Recommendations) > 0 {
		if err := json.Unmarshal(a.Recommendations, &res.Recommendations); err != nil {
			return nil, err
		}
	}
	return res, nil
}
