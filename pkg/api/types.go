// Package api holds the request/response types shared by the server
// and the CLI.
package api

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type TriggerRequest struct {
	PipelineID uint   `json:"pipeline_id"`
	Event      string `json:"event,omitempty"` // defaults to manual
}

type TriggerResponse struct {
	RunUUID string `json:"run_uuid"`
}

type WebhookPayload struct {
	Name  string `json:"name" binding:"required"`
	Event string `json:"event" binding:"required"`
}

type PipelineBrief struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
}

type PipelineDetail struct {
	PipelineBrief
	Config string `json:"config"`
}

type RunBrief struct {
	ID         uint   `json:"id"`
	RunUUID    string `json:"run_uuid"`
	PipelineID uint   `json:"pipeline_id"`
	Event      string `json:"event"`
	Status     string `json:"status"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time,omitempty"`
}

type RunDetail struct {
	RunUUID string      `json:"run_uuid"`
	Event   string      `json:"event"`
	Status  string      `json:"status"`
	Config  string      `json:"config"`
	Jobs    []JobDetail `json:"jobs"`
}

type JobDetail struct {
	JobName   string       `json:"job_name"`
	Status    string       `json:"status"`
	StartTime string       `json:"start_time,omitempty"`
	EndTime   string       `json:"end_time,omitempty"`
	Steps     []StepDetail `json:"steps"`
}

type StepDetail struct {
	StepName string `json:"step_name"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output,omitempty"`
	Duration string `json:"duration,omitempty"`
}
