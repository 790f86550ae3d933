package api

import (
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ififf/internal/report"
)

// jsonSerializer renders c.JSON bodies with go-json, the same encoder the
// CLI uses for --json.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c *echo.Context, target any, indent string) error {
	return report.Write(c.Response(), target, indent != "")
}

func (jsonSerializer) Deserialize(c *echo.Context, target any) error {
	return json.NewDecoder(c.Request().Body).Decode(target)
}
