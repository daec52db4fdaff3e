package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/seocrawl/internal/storage"
)

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReport handles GET /api/v1/sites/:site/report.
func (s *Server) handleReport(c *gin.Context) {
	report, err := s.store.LoadReport(c.Request.Context(), c.Param("site"))
	if err != nil {
		if errors.Is(err, storage.ErrNoReport) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report for site"})
			return
		}
		s.log.Error("Failed to load report", "site", c.Param("site"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleSnapshots handles GET /api/v1/sites/:site/snapshots.
func (s *Server) handleSnapshots(c *gin.Context) {
	infos, err := s.store.ListSnapshots(c.Request.Context(), c.Param("site"))
	if err != nil {
		s.log.Error("Failed to list snapshots", "site", c.Param("site"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list snapshots"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": infos})
}

// handleSnapshot handles GET /api/v1/sites/:site/snapshots/:date.
func (s *Server) handleSnapshot(c *gin.Context) {
	snapshot, err := s.store.LoadSnapshot(c.Request.Context(), c.Param("site"), c.Param("date"))
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
			return
		}
		s.log.Error("Failed to load snapshot", "site", c.Param("site"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load snapshot"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// handleChanges handles GET /api/v1/sites/:site/changes: the changed
// rows of the latest stored report.
func (s *Server) handleChanges(c *gin.Context) {
	report, err := s.store.LoadReport(c.Request.Context(), c.Param("site"))
	if err != nil {
		if errors.Is(err, storage.ErrNoReport) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report for site"})
			return
		}
		s.log.Error("Failed to load report", "site", c.Param("site"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_date": report.RunDate, "changes": report.Changes})
}
