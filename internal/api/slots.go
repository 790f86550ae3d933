package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ififf/internal/report"
	"github.com/samcharles93/ififf/internal/storage"
	"github.com/samcharles93/ififf/pkg/quetzal"
)

type SlotResponse struct {
	ID        string           `json:"id"`
	Object    string           `json:"object"`
	Name      string           `json:"name,omitempty"`
	Identity  *report.Identity `json:"identity,omitempty"`
	Size      int              `json:"size,omitempty"`
	CreatedAt int64            `json:"created_at"`
	Save      *report.Save     `json:"save,omitempty"`
}

type SlotList struct {
	Object string         `json:"object"`
	Data   []SlotResponse `json:"data"`
}

type DeleteSlotResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

func slotResponse(slot storage.Slot) SlotResponse {
	out := SlotResponse{
		ID:        slot.ID,
		Object:    "slot",
		Name:      slot.Name,
		Size:      len(slot.Data),
		CreatedAt: slot.CreatedAt.Unix(),
	}
	if slot.HasIdentity {
		out.Identity = report.NewIdentity(slot.Identity)
	}
	return out
}

// handleCreateSlot stores the request body as a save slot. The body must be a
// well-formed save; the optional name query parameter labels the slot.
func (s *Server) handleCreateSlot(c *echo.Context) error {
	data, err := s.readBody(c)
	if err != nil {
		return writeFailure(c, err)
	}
	sum, err := quetzal.Inspect(data)
	if err != nil {
		return writeFailure(c, err)
	}
	slot := storage.Slot{
		ID:          newSlotID(),
		Name:        c.QueryParam("name"),
		Identity:    sum.Identity,
		HasIdentity: sum.HasIdentity,
		Data:        data,
		CreatedAt:   s.clock().UTC().Truncate(time.Second),
	}
	if err := s.store.Put(c.Request().Context(), slot); err != nil {
		s.log.Error("store slot", "id", slot.ID, "error", err)
		return writeFailure(c, err)
	}
	s.log.Info("slot created", "id", slot.ID, "bytes", len(data))

	out := slotResponse(slot)
	save := report.NewSave(sum)
	out.Save = &save
	return c.JSON(http.StatusCreated, out)
}

func (s *Server) handleListSlots(c *echo.Context) error {
	slots, err := s.store.List(c.Request().Context())
	if err != nil {
		return writeFailure(c, err)
	}
	out := SlotList{Object: "list", Data: make([]SlotResponse, 0, len(slots))}
	for _, slot := range slots {
		out.Data = append(out.Data, slotResponse(slot))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetSlot(c *echo.Context) error {
	id := c.Param("id")
	slot, err := s.store.Get(c.Request().Context(), id)
	if err != nil {
		return writeFailure(c, err)
	}
	out := slotResponse(slot)
	if sum, err := quetzal.Inspect(slot.Data); err == nil {
		save := report.NewSave(sum)
		out.Save = &save
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleSlotData(c *echo.Context) error {
	id := c.Param("id")
	slot, err := s.store.Get(c.Request().Context(), id)
	if err != nil {
		return writeFailure(c, err)
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, slot.Data)
}

func (s *Server) handleDeleteSlot(c *echo.Context) error {
	id := c.Param("id")
	if err := s.store.Delete(c.Request().Context(), id); err != nil {
		return writeFailure(c, err)
	}
	s.log.Info("slot deleted", "id", id)
	return c.JSON(http.StatusOK, DeleteSlotResp{
		ID:      id,
		Object:  "slot.deleted",
		Deleted: true,
	})
}
