package handler

import (
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mast/internal/common"
	"mast/internal/engine"
	"mast/internal/server/dao"
	"mast/internal/server/model"
	"mast/pkg/api"
)

const defaultRunListLimit = 50

func runBrief(run *model.PipelineRun) api.RunBrief {
	brief := api.RunBrief{
		ID:         run.ID,
		RunUUID:    run.RunUUID,
		PipelineID: run.PipelineID,
		Event:      run.Event,
		Status:     run.Status,
		StartTime:  run.CreatedAt.Format(timeLayout),
	}
	if engine.Status(run.Status).Terminal() {
		brief.EndTime = run.UpdatedAt.Format(timeLayout)
	}
	return brief
}

func ListRuns(c *gin.Context) {
	limit := defaultRunListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			common.Error(c, common.NewErrNo(common.RequestInvalid))
			return
		}
		limit = parsed
	}

	runs, err := dao.NewRunDao().ListRuns(c, limit)
	if err != nil {
		common.Error(c, common.NewErrNo(common.GetRunsFail))
		return
	}

	// In-flight runs first, then newest first within each group.
	sort.SliceStable(runs, func(i, j int) bool {
		ri, rj := runs[i].Status == string(engine.StatusRunning), runs[j].Status == string(engine.StatusRunning)
		return ri && !rj
	})

	briefs := make([]api.RunBrief, 0, len(runs))
	for _, run := range runs {
		briefs = append(briefs, runBrief(run))
	}
	common.Success(c, briefs)
}

func GetRunDetail(c *gin.Context) {
	param := c.Param("id")

	// Accepts either the numeric row ID from a run listing or the
	// run UUID the trigger endpoints hand out.
	runDao := dao.NewRunDao()
	var run *model.PipelineRun
	var err error
	if id, convErr := strconv.ParseUint(param, 10, 64); convErr == nil {
		run, err = runDao.GetRunByID(c, uint(id))
	} else {
		run, err = runDao.GetRunByUUID(c, param)
	}
	if err != nil {
		common.Error(c, common.NewErrNo(common.GetRunDetailFail))
		return
	}
	runUUID := run.RunUUID

	pipeline, err := dao.NewPipelineDao().GetByID(c, run.PipelineID)
	if err != nil {
		common.Error(c, err)
		return
	}

	jobRuns, err := runDao.GetJobRuns(c, runUUID)
	if err != nil {
		common.Error(c, common.NewErrNo(common.GetRunDetailFail))
		return
	}
	stepRuns, err := runDao.GetStepRuns(c, runUUID)
	if err != nil {
		common.Error(c, common.NewErrNo(common.GetRunDetailFail))
		return
	}

	stepsByJob := make(map[string][]api.StepDetail)
	for _, sr := range stepRuns {
		stepsByJob[sr.JobName] = append(stepsByJob[sr.JobName], api.StepDetail{
			StepName: sr.StepName,
			Status:   sr.Status,
			Reason:   sr.Reason,
			ExitCode: sr.ExitCode,
			Output:   sr.Output,
			Duration: (time.Duration(sr.DurationMS) * time.Millisecond).String(),
		})
	}

	jobs := make([]api.JobDetail, 0, len(jobRuns))
	for _, jr := range jobRuns {
		jobs = append(jobs, api.JobDetail{
			JobName:   jr.JobName,
			Status:    jr.Status,
			StartTime: jr.CreatedAt.Format(timeLayout),
			EndTime:   jr.UpdatedAt.Format(timeLayout),
			Steps:     stepsByJob[jr.JobName],
		})
	}

	common.Success(c, api.RunDetail{
		RunUUID: run.RunUUID,
		Event:   run.Event,
		Status:  run.Status,
		Config:  pipeline.Config,
		Jobs:    jobs,
	})
}
