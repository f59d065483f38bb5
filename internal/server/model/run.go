package model

import "gorm.io/gorm"

// PipelineRun is one execution of a pipeline version, keyed by the
// engine's run UUID.
type PipelineRun struct {
	gorm.Model
	RunUUID    string `gorm:"type:varchar(50);not null;uniqueIndex"`
	PipelineID uint   `gorm:"not null;index"`
	Version    int    `gorm:"not null"`
	Event      string `gorm:"type:varchar(32);not null"`
	Status     string `gorm:"type:varchar(16);not null"` // running/success/failed
}

type JobRun struct {
	gorm.Model
	RunUUID    string `gorm:"type:varchar(50);not null;uniqueIndex:idx_run_job"`
	JobName    string `gorm:"type:varchar(255);not null;uniqueIndex:idx_run_job"`
	Status     string `gorm:"type:varchar(16);not null"` // pending/running/success/failed/skipped
	DurationMS int64
}

type StepRun struct {
	gorm.Model
	RunUUID    string `gorm:"type:varchar(50);not null;index:idx_run_step"`
	JobName    string `gorm:"type:varchar(255);not null;index:idx_run_step"`
	Ordinal    int    `gorm:"not null"`
	StepName   string `gorm:"type:varchar(255);not null"`
	Status     string `gorm:"type:varchar(16);not null"`
	Reason     string `gorm:"type:varchar(16)"`
	ExitCode   int
	Output     string `gorm:"type:text"`
	DurationMS int64
}
