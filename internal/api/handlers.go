package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/insightx/server/internal/core/errx"
	"github.com/insightx/server/internal/insight/model"
	"github.com/insightx/server/internal/media"
	"github.com/insightx/server/internal/session"
	logx "github.com/insightx/server/pkg/logger"
)

// askRequest is the /api/ask body.
type askRequest struct {
	Question    string           `json:"question"`
	ChatHistory []model.ChatTurn `json:"chat_history"`
	SessionID   string           `json:"session_id"`
}

var allowedAudioTypes = map[string]bool{
	"audio/wav": true, "audio/x-wav": true, "audio/wave": true,
	"audio/webm": true, "audio/ogg": true, "audio/mpeg": true, "audio/mp3": true,
	"audio/mp4": true, "audio/x-m4a": true, "audio/aac": true,
	"video/webm": true,
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true, "image/png": true, "image/webp": true, "image/bmp": true,
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "service": ServiceName})
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req askRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	resp, err := s.runner.Ask(c.Context(), model.AskInput{
		Question: req.Question,
		History:  req.ChatHistory,
	})
	if err != nil {
		return err
	}

	if req.SessionID != "" {
		s.persistExchange(req.SessionID, resp)
	}
	return c.JSON(resp)
}

// persistExchange logs the turn to the session store without blocking or
// failing the response.
func (s *Server) persistExchange(sessionID string, resp *model.PipelineResponse) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.sessions.AddMessage(ctx, sessionID, session.Message{
			Role:    "user",
			Content: resp.Question,
		}); err != nil {
			logx.Warn().Err(err).Str("session_id", sessionID).Msg("failed to store user message")
			return
		}

		assistant := session.Message{Role: "assistant", Content: resp.Answer}
		if resp.SQL != "" {
			assistant.SQLText = resp.SQL
			assistant.Data = resp
		}
		if err := s.sessions.AddMessage(ctx, sessionID, assistant); err != nil {
			logx.Warn().Err(err).Str("session_id", sessionID).Msg("failed to store assistant message")
			return
		}

		if n, err := s.sessions.MessageCount(ctx, sessionID); err == nil && n <= 2 {
			if err := s.sessions.AutoTitle(ctx, sessionID, resp.Question); err != nil {
				logx.Warn().Err(err).Str("session_id", sessionID).Msg("failed to auto-title session")
			}
		}
	}()
}

func (s *Server) handleTranscribe(c *fiber.Ctx) error {
	transcription, err := s.transcribeUpload(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"transcription": transcription})
}

func (s *Server) transcribeUpload(c *fiber.Ctx) (string, error) {
	data, mimeType, err := readUpload(c, "audio")
	if err != nil {
		return "", err
	}
	// browsers are inconsistent about recording MIME types; only reject a
	// type that is present and known-bad
	if mimeType != "" && !allowedAudioTypes[mimeType] {
		return "", errx.Validation(fmt.Sprintf("Unsupported audio type: %s. Accepted: wav, webm, mp3, ogg, m4a.", mimeType))
	}

	transcription, err := s.media.Transcribe(c.Context(), data, mimeType)
	if err != nil {
		return "", errx.New(err, fiber.StatusInternalServerError, fmt.Sprintf("Transcription failed: %v", err))
	}
	return transcription, nil
}

func (s *Server) handleVoiceAsk(c *fiber.Ctx) error {
	transcription, err := s.transcribeUpload(c)
	if err != nil {
		return err
	}
	if transcription == "" {
		return errx.Validation("Could not transcribe any speech from the audio.")
	}

	resp, err := s.runner.Ask(c.Context(), model.AskInput{Question: transcription})
	if err != nil {
		return err
	}
	resp.Transcription = transcription
	return c.JSON(resp)
}

func (s *Server) handleOCRAsk(c *fiber.Ctx) error {
	data, mimeType, err := readUpload(c, "image")
	if err != nil {
		return err
	}
	if !allowedImageTypes[mimeType] {
		return errx.Validation(fmt.Sprintf("Unsupported image type: %s", mimeType))
	}

	extracted, err := s.media.ExtractText(c.Context(), data, mimeType)
	if err != nil {
		return errx.New(err, fiber.StatusInternalServerError, fmt.Sprintf("OCR pipeline failed: %v", err))
	}
	if !media.Readable(extracted) {
		return errx.Validation("No readable text found in the image.")
	}

	question, err := s.media.FormulateQuestion(c.Context(), extracted, c.FormValue("text"))
	if err != nil {
		return errx.New(err, fiber.StatusInternalServerError, fmt.Sprintf("OCR pipeline failed: %v", err))
	}

	resp, err := s.runner.Ask(c.Context(), model.AskInput{Question: question})
	if err != nil {
		return err
	}
	resp.OCRText = extracted
	resp.OriginalQuestion = question
	return c.JSON(resp)
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.sessions.List(c.Context(), session.DefaultListLimit)
	if err != nil {
		return err
	}
	return c.JSON(sessions)
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Create(c.Context(), "")
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

func (s *Server) handleSessionMessages(c *fiber.Ctx) error {
	msgs, err := s.sessions.Messages(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(msgs)
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	deleted, err := s.sessions.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if !deleted {
		return errx.New(nil, fiber.StatusNotFound, "Session not found")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// readUpload pulls one multipart file into memory.
func readUpload(c *fiber.Ctx, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", errx.Validation(fmt.Sprintf("missing %s file", field))
	}
	data, err := readFileHeader(fh)
	if err != nil {
		return nil, "", errx.New(err, fiber.StatusBadRequest, fmt.Sprintf("could not read %s file", field))
	}
	return data, fh.Header.Get("Content-Type"), nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
