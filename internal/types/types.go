// Package types contains the shared data types passed between the
// serial pipeline, the cycle detector, and the storage backends.
package types

import "time"

// Pass/fail verdicts as stored and reported.
const (
	VerdictPass = "PASS"
	VerdictFail = "FAIL"
)

// PowerStatus is the machine state reported by the PLC over the shared
// serial stream. It is ephemeral: each frame replaces the previous one.
type PowerStatus struct {
	Power bool
	State string
}

// HeightSample is a single laser distance reading in millimeters.
type HeightSample struct {
	Value float64
}

// ActiveModel describes the part model currently selected for production,
// including the accept band for weld depth. Lower/upper are compared
// inclusively; the detector does not validate lower <= upper.
type ActiveModel struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	ModelType  string  `json:"model_type"`
	LowerLimit float64 `json:"lower_limit"`
	UpperLimit float64 `json:"upper_limit"`
}

// CycleResult is one completed, validated weld cycle. It is immutable once
// built and is handed off to the configured storage backends.
type CycleResult struct {
	ID              string    `gorm:"column:id;primaryKey" json:"id"`
	Timestamp       time.Time `gorm:"column:timestamp" json:"timestamp"`
	ReferenceHeight float64   `gorm:"column:reference_height" json:"reference_height"`
	MinHeight       float64   `gorm:"column:min_height" json:"min_height"`
	MaxHeight       float64   `gorm:"column:max_height" json:"max_height"`
	WeldDepth       float64   `gorm:"column:weld_depth" json:"weld_depth"`
	PassFail        string    `gorm:"column:pass_fail" json:"pass_fail"`
	ModelID         int64     `gorm:"column:model_id" json:"model_id"`
	ModelName       string    `gorm:"column:model_name" json:"model_name"`
	ModelType       string    `gorm:"column:model_type" json:"model_type"`
}

// TableName implements the GORM Tabler interface for CycleResult
func (CycleResult) TableName() string {
	return "cycles"
}
