package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mast/internal/common"
	"mast/internal/server/model"
)

type PipelineDao interface {
	Create(ctx context.Context, pipeline *model.Pipeline) error
	GetNewestVersionByName(ctx context.Context, name string) (*model.Pipeline, error)
	GetNewestVersionByID(ctx context.Context, id uint) (*model.Pipeline, error)
	GetByID(ctx context.Context, id uint) (*model.Pipeline, error)
	ListNewestVersions(ctx context.Context) ([]*model.Pipeline, error)
}

type pipelineDAO struct{}

func NewPipelineDao() PipelineDao {
	return &pipelineDAO{}
}

func (d *pipelineDAO) Create(ctx context.Context, pipeline *model.Pipeline) error {
	if err := db.WithContext(ctx).Create(pipeline).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.NewErrNo(common.PipelineExists)
		}
		return err
	}
	return nil
}

func (d *pipelineDAO) GetNewestVersionByName(ctx context.Context, name string) (*model.Pipeline, error) {
	var pipeline model.Pipeline
	err := db.WithContext(ctx).
		Where("name = ?", name).
		Order("version DESC").
		Take(&pipeline).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.PipelineNotExists)
		}
		return nil, err
	}
	return &pipeline, nil
}

func (d *pipelineDAO) GetNewestVersionByID(ctx context.Context, id uint) (*model.Pipeline, error) {
	pipeline, err := d.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// The row's name identifies the lineage; fetch its newest version.
	return d.GetNewestVersionByName(ctx, pipeline.Name)
}

func (d *pipelineDAO) GetByID(ctx context.Context, id uint) (*model.Pipeline, error) {
	var pipeline model.Pipeline
	err := db.WithContext(ctx).Where("id = ?", id).Take(&pipeline).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.PipelineNotExists)
		}
		return nil, err
	}
	return &pipeline, nil
}

func (d *pipelineDAO) ListNewestVersions(ctx context.Context) ([]*model.Pipeline, error) {
	var names []string
	if err := db.WithContext(ctx).Model(&model.Pipeline{}).
		Distinct("name").Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	pipelines := make([]*model.Pipeline, 0, len(names))
	for _, name := range names {
		p, err := d.GetNewestVersionByName(ctx, name)
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}
