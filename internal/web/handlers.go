package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"deathmap/internal/filter"
	"deathmap/internal/geo"
	"deathmap/internal/session"
	"deathmap/internal/stats"
)

func (s *Server) health(c *gin.Context) {
	base := s.sessions.Base()

	body := gin.H{
		"status":   "ok",
		"dataset":  base.State(),
		"sessions": s.sessions.Len(),
	}

	if err := base.Err(); err != nil {
		body["error"] = err.Error()
	}

	c.JSON(http.StatusOK, body)
}

func (s *Server) dataset(c *gin.Context) {
	ds, err := s.sessions.Base().Dataset()
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":     ds.Year,
		"total":    ds.Total,
		"by_type":  ds.ByType,
		"metadata": ds.Metadata,
	})
}

func (s *Server) createSession(c *gin.Context) {
	v, err := s.sessions.Create()
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      v.ID,
		"filters": v.Engine.Filters(),
		"total":   v.Engine.Total(),
	})
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// view resolves the :id parameter, writing the error response on failure.
func (s *Server) view(c *gin.Context) (*session.View, bool) {
	v, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return nil, false
	}

	return v, true
}

func (s *Server) getFilters(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, v.Engine.Filters())
}

func (s *Server) patchFilters(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		s.abortWithError(c, fmt.Errorf("%w: %w", filter.ErrInvalidSpecification, err))
		return
	}

	patch, err := filter.DecodePatch(body)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	if err := v.Engine.SetFilters(patch); err != nil {
		s.abortWithError(c, err)
		return
	}

	spec, records := v.Engine.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"filters": spec,
		"count":   len(records),
	})
}

func (s *Server) resetFilters(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}

	v.Engine.ResetFilters()

	c.JSON(http.StatusOK, gin.H{
		"filters": v.Engine.Filters(),
		"count":   v.Engine.Total(),
	})
}

func (s *Server) records(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}

	spec, records := v.Engine.Snapshot()
	total := len(records)

	offset := min(parseInt(c.Query("offset"), 0), total)
	limit := parseInt(c.Query("limit"), 0)

	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}

	c.JSON(http.StatusOK, gin.H{
		"filters":      spec,
		"total":        total,
		"datasetTotal": v.Engine.Total(),
		"offset":       offset,
		"limit":        limit,
		"items":        records[offset:end],
	})
}

func (s *Server) stats(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}

	top := parseInt(c.Query("top"), stats.DefaultTopDepartments)

	c.JSON(http.StatusOK, stats.Compute(v.Engine.FilteredRecords(), top))
}

func (s *Server) geojson(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}

	records := v.Engine.FilteredRecords()

	if raw := strings.TrimSpace(c.Query("bbox")); raw != "" {
		bounds, err := geo.ParseBBox(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		records = geo.Within(records, bounds)
	}

	if c.Query("format") == "heat" {
		c.JSON(http.StatusOK, geo.HeatPoints(records))
		return
	}

	c.JSON(http.StatusOK, geo.FeatureCollection(records))
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}

	return n
}
