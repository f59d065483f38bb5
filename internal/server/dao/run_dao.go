package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mast/internal/server/model"
)

type RunDao interface {
	CreateRun(ctx context.Context, run *model.PipelineRun) error
	UpdateRunStatus(ctx context.Context, runUUID, status string) error
	GetRunByUUID(ctx context.Context, runUUID string) (*model.PipelineRun, error)
	GetRunByID(ctx context.Context, id uint) (*model.PipelineRun, error)
	ListRuns(ctx context.Context, limit int) ([]*model.PipelineRun, error)

	UpsertJobRun(ctx context.Context, jobRun *model.JobRun) error
	UpsertStepRun(ctx context.Context, stepRun *model.StepRun) error
	GetJobRuns(ctx context.Context, runUUID string) ([]*model.JobRun, error)
	GetStepRuns(ctx context.Context, runUUID string) ([]*model.StepRun, error)
}

type runDAO struct{}

func NewRunDao() RunDao {
	return &runDAO{}
}

func (d *runDAO) CreateRun(ctx context.Context, run *model.PipelineRun) error {
	return db.WithContext(ctx).Create(run).Error
}

func (d *runDAO) UpdateRunStatus(ctx context.Context, runUUID, status string) error {
	return db.WithContext(ctx).Model(&model.PipelineRun{}).
		Where("run_uuid = ?", runUUID).
		Update("status", status).Error
}

func (d *runDAO) GetRunByUUID(ctx context.Context, runUUID string) (*model.PipelineRun, error) {
	var run model.PipelineRun
	if err := db.WithContext(ctx).Where("run_uuid = ?", runUUID).Take(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (d *runDAO) GetRunByID(ctx context.Context, id uint) (*model.PipelineRun, error) {
	var run model.PipelineRun
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (d *runDAO) ListRuns(ctx context.Context, limit int) ([]*model.PipelineRun, error) {
	var runs []*model.PipelineRun
	query := db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (d *runDAO) UpsertJobRun(ctx context.Context, newJobRun *model.JobRun) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var jobRun model.JobRun
		err := tx.Where("run_uuid = ? AND job_name = ?", newJobRun.RunUUID, newJobRun.JobName).
			Take(&jobRun).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(newJobRun).Error
			}
			return err
		}
		jobRun.Status = newJobRun.Status
		jobRun.DurationMS = newJobRun.DurationMS
		return tx.Save(&jobRun).Error
	})
}

func (d *runDAO) UpsertStepRun(ctx context.Context, newStepRun *model.StepRun) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stepRun model.StepRun
		err := tx.Where("run_uuid = ? AND job_name = ? AND ordinal = ?",
			newStepRun.RunUUID, newStepRun.JobName, newStepRun.Ordinal).
			Take(&stepRun).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(newStepRun).Error
			}
			return err
		}
		stepRun.Status = newStepRun.Status
		stepRun.Reason = newStepRun.Reason
		stepRun.ExitCode = newStepRun.ExitCode
		stepRun.Output = newStepRun.Output
		stepRun.DurationMS = newStepRun.DurationMS
		return tx.Save(&stepRun).Error
	})
}

func (d *runDAO) GetJobRuns(ctx context.Context, runUUID string) ([]*model.JobRun, error) {
	var jobRuns []*model.JobRun
	if err := db.WithContext(ctx).Where("run_uuid = ?", runUUID).Find(&jobRuns).Error; err != nil {
		return nil, err
	}
	return jobRuns, nil
}

func (d *runDAO) GetStepRuns(ctx context.Context, runUUID string) ([]*model.StepRun, error) {
	var stepRuns []*model.StepRun
	if err := db.WithContext(ctx).
		Where("run_uuid = ?", runUUID).
		Order("job_name, ordinal").
		Find(&stepRuns).Error; err != nil {
		return nil, err
	}
	return stepRuns, nil
}
