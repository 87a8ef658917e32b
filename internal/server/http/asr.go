package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ekisa-team/voxgate/internal/model"
	"github.com/ekisa-team/voxgate/internal/service"
)

const (
	audioField       = "audio"
	multipartMemory  = 32 << 20
	traceDetailLimit = 500
)

// handleASR transcribes an uploaded recording.
//
// @Summary     Speech to text
// @Description Transcribes the uploaded audio. WAV uploads are passed to the model as .wav, anything else as .webm.
// @Tags        speech
// @Accept      multipart/form-data
// @Produce     json
// @Param       audio  formData  file                      true  "Recorded audio"
// @Success     200    {object}  service.TranscriptResult  "Transcript"
// @Failure     400    {object}  ErrorResponse             "Missing, unselected or too small upload"
// @Failure     413    {object}  ErrorResponse             "Upload too large"
// @Failure     500    {object}  ErrorResponse             "Model unavailable or recognition failed"
// @Router      /asr [post]
func (h *Handler) handleASR(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Audio file too large (max %d bytes)", tooLarge.Limit))
			return
		}
		slog.Warn("Failed to read upload", "error", err)
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}

	res, err := h.stt.Transcribe(r.Context(), up)
	if err != nil {
		status, body := h.asrError(err)
		if status >= http.StatusInternalServerError {
			slog.Error("ASR error", "error", err)
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) asrError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, service.ErrNoAudioSelected):
		return http.StatusBadRequest, ErrorResponse{Error: "No audio file selected"}
	case errors.Is(err, service.ErrMissingAudio):
		return http.StatusBadRequest, ErrorResponse{Error: "No audio file provided"}
	case errors.Is(err, service.ErrAudioTooSmall):
		return http.StatusBadRequest, ErrorResponse{Error: "Audio file too small"}
	case errors.Is(err, model.ErrModelUnavailable):
		return http.StatusInternalServerError, ErrorResponse{Error: "ASR model not initialized"}
	}

	limit := h.stt.Limits().TracebackLimit
	if limit <= 0 {
		limit = traceDetailLimit
	}

	resp := ErrorResponse{Error: "ASR processing failed: " + err.Error()}
	var se *service.StrategyError
	if errors.As(err, &se) {
		resp.Traceback = se.Trace(limit)
	}
	return http.StatusInternalServerError, resp
}

// readUpload returns the audio part of a multipart request. A missing part
// yields a nil upload; a part sent without a filename yields an upload with
// an empty name, so the service can tell the two apart.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*service.AudioUpload, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	file, hdr, err := r.FormFile(audioField)
	if errors.Is(err, http.ErrMissingFile) {
		// Parts without a filename are parsed as plain values.
		if _, ok := r.MultipartForm.Value[audioField]; ok {
			return &service.AudioUpload{}, nil
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	return &service.AudioUpload{
		Data:        data,
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
	}, nil
}
