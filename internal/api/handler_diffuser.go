package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/engine"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/errs"
)

// maxBodyBytes bounds device uploads; a few seconds of 16 kHz mono WAV is well under it.
const maxBodyBytes = 10 << 20

// PostDiffuser handles device and app decision requests. WAV bodies enter voice mode.
func (h *Handler) PostDiffuser(c *gin.Context) {
	if isAudio(c) {
		h.PostVoice(c)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	raw, err := c.GetRawData()
	if err != nil {
		log.Printf("Error reading request body: %v", err)
		raw = nil
	}

	req, ok := toRequest(decodeBody(raw))
	if !ok {
		render(c, engine.CommandError())
		return
	}
	h.decide(c, req)
}

// PostVoice handles a recorded voice command.
func (h *Handler) PostVoice(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	raw, err := c.GetRawData()
	if err != nil {
		log.Printf("Voice decode error: %v", err)
		renderError(c, errs.NewValidation("VOICE decode error"))
		return
	}

	audio, err := decodeAudio(raw, isBase64(c))
	if err != nil || len(audio) == 0 {
		if err == nil {
			err = errors.New("empty audio body")
		}
		log.Printf("Voice decode error: %v", err)
		renderError(c, errs.NewValidation("VOICE decode error"))
		return
	}

	h.decide(c, engine.VoiceRequest{DeviceID: voiceDeviceID(c), Audio: audio})
}

func (h *Handler) decide(c *gin.Context, req engine.Request) {
	res, err := h.engine.Decide(c.Request.Context(), req)
	if err != nil {
		log.Printf("Decision failed: %v", err)
		renderError(c, err)
		return
	}
	if h.responses != nil {
		h.responses.PurgeDevice(engine.DeviceOf(req))
	}
	render(c, res)
}
