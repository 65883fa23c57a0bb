package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MOYARU/verid/internal/fingerprint"
	"github.com/MOYARU/verid/internal/report"
	"github.com/MOYARU/verid/internal/store"
	"github.com/MOYARU/verid/internal/versionid"
)

// IdentifyRequest carries evidence the caller already gathered. A missing
// "pages" key means no page evidence; [] means pages exposed nothing.
type IdentifyRequest struct {
	Collection string                  `json:"collection" binding:"required"`
	Target     string                  `json:"target"`
	Files      []versionid.FetchedFile `json:"files"`
	Pages      []string                `json:"pages"`
	Confidence *int                    `json:"confidence"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "collections": len(s.registry.Keys())})
}

func (s *Server) listCollections(c *gin.Context) {
	stats := make([]fingerprint.Stats, 0)
	for _, key := range s.registry.Keys() {
		col, err := s.registry.Get(key)
		if err != nil {
			continue
		}
		stats = append(stats, fingerprint.Summarize(col))
	}
	c.JSON(http.StatusOK, gin.H{"collections": stats})
}

func (s *Server) reloadCollections(c *gin.Context) {
	if err := s.registry.Reload(c.Request.Context()); err != nil {
		s.log.WithError(err).Warn("collection reload failed")
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "collections": s.registry.Keys()})
}

func (s *Server) identify(c *gin.Context) {
	var req IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	col, err := s.registry.Get(req.Collection)
	if err != nil {
		errorJSON(c, http.StatusNotFound, err)
		return
	}

	confidence := s.cfg.ConfidenceLevel
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	log := s.log.WithField("collection", col.Key)
	id, err := versionid.New(
		versionid.WithConfidenceLevel(confidence),
		versionid.WithProduct(s.cfg.Product),
		versionid.WithLogger(log),
	)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	var pages [][]byte
	if req.Pages != nil {
		pages = make([][]byte, 0, len(req.Pages))
		for _, p := range req.Pages {
			pages = append(pages, []byte(p))
		}
	}

	res, err := id.IdentifyVersion(req.Files, col, pages)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}

	rep := report.New(req.Target, col.Key)
	rep.Apply(res, req.Files)
	rep.Finish(nil)
	if s.store != nil {
		if err := s.store.Save(c.Request.Context(), rep); err != nil {
			log.WithError(err).Warn("result not stored")
			rep.AddError(err)
		}
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) getIdentification(c *gin.Context) {
	if s.store == nil {
		errorJSON(c, http.StatusNotFound, errors.New("result storage is not configured"))
		return
	}
	scanID := c.Param("id")
	if _, err := uuid.Parse(scanID); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	rep, err := s.store.Get(c.Request.Context(), scanID)
	if errors.Is(err, store.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
