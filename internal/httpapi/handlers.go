package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gocells/spreadsheet/cell"
	"github.com/gocells/spreadsheet/position"
	"github.com/gocells/spreadsheet/sheet"
)

// internalError logs the underlying failure and writes a 500 whose body
// carries the error's text. It logs the way WebhookDispatcher.go logs delivery failures with a plain fmt/log call
// rather than a structured logger the pack never reaches for.
func internalError(c *gin.Context, err error) {
	log.Printf("httpapi: %s %s: %s", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// cellResponse mirrors ApiController.go's contracts.Cell: the raw text the
// client sent or last stored, and the computed display value (or the
// engine's error token) in Result.
type cellResponse struct {
	Value  string `json:"value"`
	Result string `json:"result"`
}

type cellEndpointParams struct {
	SheetID string `uri:"sheet_id" binding:"required"`
	CellID  string `uri:"cell_id" binding:"required"`
}

type sheetEndpointParams struct {
	SheetID string `uri:"sheet_id" binding:"required"`
}

type setCellRequest struct {
	Value string `json:"value"`
}

type subscribeRequest struct {
	WebhookURL string `json:"webhook_url"`
	Filter     string `json:"filter"`
}

func resolvePos(cellID string) (position.Position, bool) {
	return position.Parse(cellID)
}

// GetCellAction handles GET /api/v1/:sheet_id/:cell_id.
func (s *Server) GetCellAction(c *gin.Context) {
	params := cellEndpointParams{}
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pos, ok := resolvePos(params.CellID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed cell id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.sheetFor(params.SheetID)
	if err != nil {
		internalError(c, err)
		return
	}

	cl, err := sh.GetCell(pos)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cl == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "cell not found"})
		return
	}

	c.JSON(http.StatusOK, toResponse(cl))
}

// SetCellAction handles POST /api/v1/:sheet_id/:cell_id.
func (s *Server) SetCellAction(c *gin.Context) {
	params := cellEndpointParams{}
	request := setCellRequest{}

	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pos, ok := resolvePos(params.CellID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed cell id"})
		return
	}

	s.mu.Lock()
	sh, err := s.sheetFor(params.SheetID)
	if err != nil {
		s.mu.Unlock()
		internalError(c, err)
		return
	}

	setErr := sh.SetCell(pos, request.Value)
	if setErr != nil {
		s.mu.Unlock()
		c.JSON(http.StatusUnprocessableEntity, cellResponse{
			Value:  request.Value,
			Result: setErr.Error(),
		})
		return
	}

	if err := s.persist(params.SheetID, sh); err != nil {
		s.mu.Unlock()
		internalError(c, err)
		return
	}

	cl, _ := sh.GetCell(pos)
	response := toResponse(cl)
	env := toFilterEnv(cl)
	s.mu.Unlock()

	s.webhooks.Notify(params.SheetID, pos, env, CellNotification{
		SheetID: params.SheetID,
		CellID:  pos.String(),
		Text:    response.Value,
		Value:   response.Result,
	})

	c.JSON(http.StatusCreated, response)
}

// ClearCellAction handles DELETE /api/v1/:sheet_id/:cell_id.
func (s *Server) ClearCellAction(c *gin.Context) {
	params := cellEndpointParams{}
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pos, ok := resolvePos(params.CellID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed cell id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.sheetFor(params.SheetID)
	if err != nil {
		internalError(c, err)
		return
	}

	if err := sh.ClearCell(pos); err != nil {
		if errors.Is(err, sheet.ErrInvalidPosition) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := s.persist(params.SheetID, sh); err != nil {
		internalError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSheetAction handles GET /api/v1/:sheet_id: the printable rectangle,
// cell by cell, in the shape ApiController.go's GetSheetAction returns (a
// map keyed by canonical cell id) rather than the tab-separated text form
// Sheet.PrintValues produces for terminal/file output.
func (s *Server) GetSheetAction(c *gin.Context) {
	params := sheetEndpointParams{}
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.sheetFor(params.SheetID)
	if err != nil {
		internalError(c, err)
		return
	}

	size := sh.GetPrintableSize()
	response := make(map[string]cellResponse)
	for row := 0; row < size.RowCount; row++ {
		for col := 0; col < size.ColCount; col++ {
			pos := position.Position{Row: row, Col: col}
			cl, _ := sh.GetCell(pos)
			if cl == nil || cl.GetText() == "" {
				continue
			}
			response[pos.String()] = toResponse(cl)
		}
	}

	c.JSON(http.StatusOK, response)
}

// SubscribeAction handles POST /api/v1/:sheet_id/:cell_id/subscribe,
// registering (or, given an empty webhook_url, removing) the webhook that
// fires whenever that cell is next written, grounded in
// WebhookDispatcher.go's SetWebhookUrl.
func (s *Server) SubscribeAction(c *gin.Context) {
	params := cellEndpointParams{}
	request := subscribeRequest{}

	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pos, ok := resolvePos(params.CellID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed cell id"})
		return
	}

	if err := s.webhooks.Subscribe(params.SheetID, pos, request.WebhookURL, request.Filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func toResponse(cl *cell.Cell) cellResponse {
	if cl == nil {
		return cellResponse{}
	}
	return cellResponse{Value: cl.GetText(), Result: cl.GetValue().String()}
}

func toFilterEnv(cl *cell.Cell) filterEnv {
	if cl == nil {
		return filterEnv{}
	}
	v := cl.GetValue()
	env := filterEnv{Text: v.String(), IsError: v.Kind == cell.KindError}
	if v.Kind == cell.KindNumber {
		env.Value = v.Number
	}
	return env
}
