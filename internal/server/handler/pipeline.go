package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"mast/internal/common"
	"mast/internal/server/dao"
	"mast/internal/server/model"
	"mast/pkg/api"
	"mast/pkg/decl"
)

const timeLayout = "2006-01-02 15:04:05"

func CreatePipeline(c *gin.Context) {
	yamlContent, err := c.GetRawData()
	if err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}

	p, err := decl.Parse(yamlContent)
	if err != nil {
		common.Error(c, common.NewErrNo(common.DeclarationInvalid))
		return
	}

	pipeline := &model.Pipeline{
		Name:        p.Name,
		Description: p.Description,
		Version:     1,
		Config:      string(yamlContent),
	}
	if err := dao.NewPipelineDao().Create(c, pipeline); err != nil {
		common.Error(c, err)
		return
	}

	if err := cron.Upsert(pipeline); err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, api.PipelineBrief{
		ID:          pipeline.ID,
		Name:        pipeline.Name,
		Description: pipeline.Description,
		Version:     pipeline.Version,
		CreatedAt:   pipeline.CreatedAt.Format(timeLayout),
	})
}

func UpdatePipeline(c *gin.Context) {
	name := c.Param("name")
	yamlContent, err := c.GetRawData()
	if err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}

	p, err := decl.Parse(yamlContent)
	if err != nil {
		common.Error(c, common.NewErrNo(common.DeclarationInvalid))
		return
	}
	if p.Name != name {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}

	pipelineDao := dao.NewPipelineDao()
	newest, err := pipelineDao.GetNewestVersionByName(c, name)
	if err != nil {
		common.Error(c, err)
		return
	}

	pipeline := &model.Pipeline{
		Name:        p.Name,
		Description: p.Description,
		Version:     newest.Version + 1,
		Config:      string(yamlContent),
	}
	if err := pipelineDao.Create(c, pipeline); err != nil {
		common.Error(c, err)
		return
	}

	if err := cron.Upsert(pipeline); err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, api.PipelineBrief{
		ID:          pipeline.ID,
		Name:        pipeline.Name,
		Description: pipeline.Description,
		Version:     pipeline.Version,
		CreatedAt:   pipeline.CreatedAt.Format(timeLayout),
	})
}

func ListPipelines(c *gin.Context) {
	pipelines, err := dao.NewPipelineDao().ListNewestVersions(c)
	if err != nil {
		common.Error(c, err)
		return
	}

	briefs := make([]api.PipelineBrief, 0, len(pipelines))
	for _, p := range pipelines {
		briefs = append(briefs, api.PipelineBrief{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Version:     p.Version,
			CreatedAt:   p.CreatedAt.Format(timeLayout),
		})
	}
	common.Success(c, briefs)
}

func GetPipeline(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}

	pipeline, err := dao.NewPipelineDao().GetByID(c, uint(id))
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, api.PipelineDetail{
		PipelineBrief: api.PipelineBrief{
			ID:          pipeline.ID,
			Name:        pipeline.Name,
			Description: pipeline.Description,
			Version:     pipeline.Version,
			CreatedAt:   pipeline.CreatedAt.Format(timeLayout),
		},
		Config: pipeline.Config,
	})
}
