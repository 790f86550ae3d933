package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

// readBody returns the whole request body, refusing more than maxUpload bytes.
func (s *Server) readBody(c *echo.Context) ([]byte, error) {
	body := http.MaxBytesReader(c.Response(), c.Request().Body, s.maxUpload)
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, newInvalidRequest("request body is empty")
	}
	return data, nil
}

// readFormFile reads one part of a multipart upload.
func (s *Server) readFormFile(c *echo.Context, name string) ([]byte, error) {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, s.maxUpload)
	f, _, err := req.FormFile(name)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, newInvalidRequest(fmt.Sprintf("missing form file %q", name))
	}
	defer f.Close()
	return io.ReadAll(f)
}

// windowQuery parses the optional width and height query parameters.
func windowQuery(c *echo.Context) (w, h uint32, ok bool, err error) {
	ws, hs := c.QueryParam("width"), c.QueryParam("height")
	if ws == "" && hs == "" {
		return 0, 0, false, nil
	}
	wv, err := strconv.ParseUint(ws, 10, 32)
	if err != nil {
		return 0, 0, false, newInvalidRequest("width must be an unsigned integer")
	}
	hv, err := strconv.ParseUint(hs, 10, 32)
	if err != nil {
		return 0, 0, false, newInvalidRequest("height must be an unsigned integer")
	}
	return uint32(wv), uint32(hv), true, nil
}

func newSlotID() string {
	return "slot_" + uuid.NewString()
}
