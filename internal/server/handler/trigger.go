package handler

import (
	"github.com/gin-gonic/gin"

	"mast/internal/common"
	"mast/internal/server/dao"
	"mast/pkg/api"
	"mast/pkg/decl"
)

func TriggerPipeline(c *gin.Context) {
	var req api.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}
	event := req.Event
	if event == "" {
		event = decl.EventManual
	}

	pipeline, err := dao.NewPipelineDao().GetNewestVersionByID(c, req.PipelineID)
	if err != nil {
		common.Error(c, err)
		return
	}

	runUUID, err := startRun(c, pipeline, event)
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, api.TriggerResponse{RunUUID: runUUID})
}
