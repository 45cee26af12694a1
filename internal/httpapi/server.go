// Package httpapi is the external collaborator spec.md §1 calls out as
// out-of-core-scope ("command-line entry points ... specify their
// interface, not their internals"): a thin HTTP surface over one or more
// independent sheet.Sheet instances, grounded in ApiController.go and
// router.go. It depends on package sheet; sheet never depends on it.
package httpapi

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.etcd.io/bbolt"

	"github.com/gocells/spreadsheet/internal/store"
	"github.com/gocells/spreadsheet/sheet"
)

// Server holds one sheet.Sheet per sheet id. Per spec.md §5's note on a
// future threaded revision, every public Sheet operation here runs under
// an exclusive per-server lock — the HTTP layer is the one place this
// module is genuinely concurrent, since gin serves requests on their own
// goroutines.
type Server struct {
	mu     sync.Mutex
	sheets map[string]*sheet.Sheet
	db     *bbolt.DB // nil disables persistence

	webhooks *WebhookDispatcher
}

// NewServer builds a Server. db may be nil, in which case sheets live only
// in memory for the process lifetime.
func NewServer(db *bbolt.DB) *Server {
	return &Server{
		sheets:   make(map[string]*sheet.Sheet),
		db:       db,
		webhooks: NewWebhookDispatcher(),
	}
}

// Close releases background resources (the webhook dispatcher's worker
// pool). It does not close db — the caller opened it and owns its lifetime.
func (s *Server) Close() {
	s.webhooks.Close()
}

// sheetFor returns the named sheet, loading it from bbolt on first access
// if persistence is enabled, and lazily creating an empty one otherwise.
func (s *Server) sheetFor(sheetID string) (*sheet.Sheet, error) {
	if sh, ok := s.sheets[sheetID]; ok {
		return sh, nil
	}

	if s.db != nil {
		sh, err := store.Load(s.db, sheetID)
		if err != nil {
			return nil, err
		}
		s.sheets[sheetID] = sh
		return sh, nil
	}

	sh := sheet.New()
	s.sheets[sheetID] = sh
	return sh, nil
}

func (s *Server) persist(sheetID string, sh *sheet.Sheet) error {
	if s.db == nil {
		return nil
	}
	return store.Save(s.db, sheetID, sh)
}

// Router builds the gin.Engine exposing this Server's endpoints, mirroring
// router.go's route table.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "health")
	})

	api := router.Group("/api/v1")
	api.GET("/:sheet_id", s.GetSheetAction)
	api.GET("/:sheet_id/:cell_id", s.GetCellAction)
	api.POST("/:sheet_id/:cell_id", s.SetCellAction)
	api.DELETE("/:sheet_id/:cell_id", s.ClearCellAction)
	api.POST("/:sheet_id/:cell_id/subscribe", s.SubscribeAction)

	return router
}
