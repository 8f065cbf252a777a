package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dshills/redline/internal/admission"
	"github.com/dshills/redline/internal/output"
)

var errBadRequest = errors.New("bad request")

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"version":  s.version,
		"sessions": s.store.Len(),
	})
}

func (s *Server) createSession(c *fiber.Ctx) error {
	sess := s.store.Create()
	return c.Status(fiber.StatusCreated).JSON(sess.Info())
}

func (s *Server) showSession(c *fiber.Ctx) error {
	sess, err := s.store.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sess.Info())
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	if !s.store.Delete(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) stageFiles(c *fiber.Ctx) error {
	sess, err := s.store.Get(c.Params("id"))
	if err != nil {
		return err
	}

	var req StageRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := validateRequest(req); err != nil {
		return err
	}

	candidates := make([]admission.RawFile, 0, len(req.Files))
	for _, f := range req.Files {
		raw, err := f.rawFile()
		if err != nil {
			return err
		}
		candidates = append(candidates, raw)
	}

	outcome := sess.Stage(candidates)
	return c.JSON(StageResponse{
		Admission: output.NewAdmission(outcome),
		Session:   sess.Info(),
	})
}

// removeFiles unstages one path, or every file when path is empty.
func (s *Server) removeFiles(c *fiber.Ctx) error {
	sess, err := s.store.Get(c.Params("id"))
	if err != nil {
		return err
	}
	p := c.Query("path")
	if p == "" {
		sess.Clear()
		return c.JSON(sess.Info())
	}
	if !sess.Remove(p) {
		return fiber.NewError(fiber.StatusNotFound, "file not staged: "+p)
	}
	return c.JSON(sess.Info())
}

func (s *Server) analyze(c *fiber.Ctx) error {
	sess, err := s.store.Get(c.Params("id"))
	if err != nil {
		return err
	}

	var req AnalyzeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}

	res, err := sess.Analyze(c.UserContext(), req.options(s.defaults))
	if err != nil {
		return err
	}

	resp := AnalyzeResponse{Result: res}
	if res.Outcome.Blocked {
		s.logger.Info("analysis blocked",
			zap.String("session", sess.ID),
			zap.String("reason", string(res.Outcome.Reason)),
		)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	}
	if res.Outcome.Override {
		resp.Warning = "unredacted files containing secrets were sent"
	}
	return c.JSON(resp)
}
