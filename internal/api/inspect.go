package api

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ififf/internal/report"
	"github.com/samcharles93/ififf/internal/version"
	"github.com/samcharles93/ififf/pkg/blorb"
	"github.com/samcharles93/ififf/pkg/iff"
	"github.com/samcharles93/ififf/pkg/quetzal"
)

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Resolve(),
	})
}

// handleChunkTree parses any IFF file with every known chunk type registered.
func (s *Server) handleChunkTree(c *echo.Context) error {
	data, err := s.readBody(c)
	if err != nil {
		return writeFailure(c, err)
	}
	reg := iff.NewRegistry(iff.Base(), blorb.Module(), quetzal.Module())
	root, err := iff.Parse(data, reg)
	if err != nil {
		s.log.Debug("chunk tree rejected", "error", err)
		return writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, report.Tree(root))
}

func (s *Server) handleInspectBundle(c *echo.Context) error {
	w, h, withRatios, err := windowQuery(c)
	if err != nil {
		return writeFailure(c, err)
	}
	data, err := s.readBody(c)
	if err != nil {
		return writeFailure(c, err)
	}
	b, err := blorb.Open(data)
	if err != nil {
		s.log.Debug("bundle rejected", "error", err)
		return writeFailure(c, err)
	}
	out := report.NewBundle(b, s.extractor)
	if withRatios {
		out.WithRatios(b, w, h)
	}
	return c.JSON(http.StatusOK, out)
}

// handleVerifyBundle takes a multipart upload with "bundle" and "story" files.
// A mismatch is reported as 409 with the verification body.
func (s *Server) handleVerifyBundle(c *echo.Context) error {
	bundle, err := s.readFormFile(c, "bundle")
	if err != nil {
		return writeFailure(c, err)
	}
	story, err := s.readFormFile(c, "story")
	if err != nil {
		return writeFailure(c, err)
	}
	b, err := blorb.Open(bundle)
	if err != nil {
		return writeFailure(c, err)
	}
	out := report.NewVerify(b, story)
	if !out.Match {
		return c.JSON(http.StatusConflict, out)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleInspectSave(c *echo.Context) error {
	data, err := s.readBody(c)
	if err != nil {
		return writeFailure(c, err)
	}
	sum, err := quetzal.Inspect(data)
	if err != nil {
		s.log.Debug("save rejected", "error", err)
		return writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, report.NewSave(sum))
}
