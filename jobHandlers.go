package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/models/reports"
	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/mmdatafocus/gate_entry/workflow"
	"github.com/sirupsen/logrus"
)

type PubSubMessage struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// gatePassJobsPubSubHandler is the push endpoint of the gate pass jobs subscription.
// 204 acks the message; any other status makes Pub/Sub redeliver it.
func gatePassJobsPubSubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "jobHandlers.go", "gatePassJobsPubSubHandler", "io.ReadAll", nil, err)
			c.Status(http.StatusNoContent)
			return
		}
		var msg PubSubMessage
		// byte slice unmarshalling handles base64 decoding.
		if err := json.Unmarshal(body, &msg); err != nil {
			config.LogError(logger, "jobHandlers.go", "gatePassJobsPubSubHandler", "Unmarshal body", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}
		var m config.GatePassJobMessage
		if err := json.Unmarshal(msg.Message.Data, &m); err != nil {
			config.LogError(logger, "jobHandlers.go", "gatePassJobsPubSubHandler", "Unmarshal pubsub message", string(msg.Message.Data), err)
			c.Status(http.StatusNoContent)
			return
		}
		if m.CorrelationId == "" {
			m.CorrelationId = msg.Message.ID
		}

		processor := jobProcessor
		if processor == nil {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		outcome, err := processor.Process(c.Request.Context(), m)
		fields := logrus.Fields{
			"field":          "gatePassJobsPubSubHandler",
			"business_id":    m.BusinessId,
			"job_id":         m.JobId,
			"stock_entry":    m.StockEntry,
			"message_id":     msg.Message.ID,
			"correlation_id": m.CorrelationId,
			"outcome":        outcome.String(),
		}
		if err != nil {
			if outcome == workflow.JobDead {
				logger.WithFields(fields).Error("gate pass job dropped: " + err.Error())
			} else {
				logger.WithFields(fields).Warn("gate pass job failed; pubsub will retry: " + err.Error())
			}
		}
		if !outcome.Ack() {
			c.Status(http.StatusInternalServerError)
			return
		}
		if err == nil {
			reports.InvalidateReportCache(utils.SetBusinessIdInContext(c.Request.Context(), m.BusinessId))
		}
		c.Status(http.StatusNoContent)
	}
}

type gatePassJobReplayRequest struct {
	BusinessId string `json:"business_id" validate:"required"`
	models.ReplayGatePassJobsInput
}

// replayGatePassJobsHandler requeues jobs of one business. Admin only.
func replayGatePassJobsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req gatePassJobReplayRequest
		if !bindJSON(c, &req) {
			return
		}
		if len(req.JobIds) == 0 && req.StockEntry == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "job_ids or stock_entry is required"})
			return
		}
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), req.BusinessId)
		n, err := models.ReplayGatePassJobs(ctx, req.ReplayGatePassJobsInput)
		if err != nil {
			writeError(c, "replayGatePassJobsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"business_id": req.BusinessId, "replayed": n})
	}
}

func listGatePassJobsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId := c.Query("business_id")
		if businessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business_id is required"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)
		jobs, err := models.ListGatePassJobs(ctx, c.Query("stock_entry"), limit)
		if err != nil {
			writeError(c, "listGatePassJobsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": jobs})
	}
}
