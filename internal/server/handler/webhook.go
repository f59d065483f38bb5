package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mast/internal/common"
	"mast/internal/server/dao"
	"mast/pkg/api"
)

const timestampMaxAge = 300 // seconds

// Webhook triggers a pipeline from an external system. The request
// carries a unix timestamp and an hmac-style signature computed as
// sha256("<timestamp>.<body>.<secret>") in hex.
func Webhook(c *gin.Context) {
	timestampStr := c.GetHeader("X-Webhook-Timestamp")
	signature := c.GetHeader("X-Webhook-Signature")
	if timestampStr == "" || signature == "" {
		common.Error(c, common.NewErrNo(common.WebhookInvalid))
		return
	}

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		common.Error(c, common.NewErrNo(common.WebhookInvalid))
		return
	}
	now := time.Now().Unix()
	if now-timestamp > timestampMaxAge || timestamp > now {
		common.Error(c, common.NewErrNo(common.WebhookInvalid))
		return
	}

	var payload api.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}

	signatureBase := fmt.Sprintf("%s.%s.%s",
		timestampStr, string(payloadBytes), common.GetConfig().WebhookSecret)
	hash := sha256.Sum256([]byte(signatureBase))
	if hex.EncodeToString(hash[:]) != signature {
		common.Error(c, common.NewErrNo(common.WebhookInvalid))
		return
	}

	pipeline, err := dao.NewPipelineDao().GetNewestVersionByName(c, payload.Name)
	if err != nil {
		common.Error(c, err)
		return
	}

	runUUID, err := startRun(c, pipeline, payload.Event)
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, api.TriggerResponse{RunUUID: runUUID})
}
