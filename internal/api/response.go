package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/classify"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/engine"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/errs"
)

// render writes the payload shape the firmware and app expect for each result kind.
func render(c *gin.Context, res engine.Result) {
	switch res.Kind {
	case engine.KindBlocked:
		c.JSON(http.StatusOK, gin.H{
			"spray":       0,
			"result_text": res.ResultText,
			"message":     res.Message,
			"mode":        res.Mode,
		})
	case engine.KindEmpty:
		c.JSON(http.StatusOK, gin.H{
			"spray":              0,
			"result_text":        res.ResultText,
			"message":            res.Message,
			"mode":               res.Mode,
			"remaining_capacity": res.RemainingCapacity,
		})
	case engine.KindManual:
		c.JSON(http.StatusOK, gin.H{
			"spray":       res.ScentCode,
			"result_text": res.ResultText,
			"message":     res.Message,
		})
	case engine.KindPoll:
		c.JSON(http.StatusOK, gin.H{
			"spray":         res.ScentCode,
			"target_region": res.TargetRegion,
			"result_text":   res.ResultText,
			"message":       res.Message,
		})
	case engine.KindVoiceFailed:
		c.JSON(http.StatusOK, gin.H{
			"spray":       0,
			"duration":    0,
			"result_text": res.ResultText,
			"message":     res.Message,
		})
	default:
		payload := gin.H{
			"spray":              res.ScentCode,
			"result_text":        res.ResultText,
			"duration":           res.Duration,
			"remaining_capacity": res.RemainingCapacity,
			"message":            res.Message,
			"mode":               res.Mode,
		}
		if res.Mode == classify.ModeVoice {
			payload["voice_text"] = res.VoiceText
		}
		c.JSON(http.StatusOK, payload)
	}
}

// renderError writes a configuration or validation failure. The body stays a
// decision-shaped payload so firmware parsers never see an unexpected shape.
func renderError(c *gin.Context, err error) {
	msg := err.Error()
	var e *errs.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	c.JSON(errs.StatusOf(err), gin.H{
		"spray":       0,
		"result_text": msg,
		"message":     msg,
	})
}

// MessageRateLimited tells a throttled device why it got no scent.
const MessageRateLimited = "rate limited"

// rateLimited answers a throttled device with a blocked decision instead of a
// transport error.
func rateLimited(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusOK, gin.H{
		"spray":       0,
		"result_text": engine.ResultWait,
		"message":     MessageRateLimited,
		"mode":        engine.ModeCoolDown,
	})
}
