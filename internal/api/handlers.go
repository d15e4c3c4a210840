package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/analytics"
	"github.com/NguyenVietAn1824/KLTN-v1/internal/store"
)

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListProvinces(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	provinces, err := s.repo.ListProvinces(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": provinces, "meta": gin.H{"count": len(provinces)}})
}

// handleDistricts lists the province's districts, or searches by name
// fragment when q is present.
// GET /districts?q=cau+giay
func (s *Server) handleDistricts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var districts []store.District
	var err error
	if q := c.Query("q"); q != "" {
		districts, err = s.repo.SearchDistrictsByName(ctx, q)
	} else {
		districts, err = s.repo.ListDistricts(ctx, store.SeedProvinceID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": districts, "meta": gin.H{"count": len(districts)}})
}

// resolveDistrict looks a district up by primary id, then by either external
// id so callers can use whichever identifier a feed gave them.
func (s *Server) resolveDistrict(ctx context.Context, id string) (*store.District, error) {
	d, err := s.repo.GetDistrict(ctx, id)
	if err != nil || d != nil {
		return d, err
	}
	d, err = s.repo.GetDistrictByInternalID(ctx, id)
	if err != nil || d != nil {
		return d, err
	}
	return s.repo.GetDistrictByAdminID(ctx, id)
}

func (s *Server) handleGetDistrict(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	d, err := s.resolveDistrict(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "district not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": d})
}

// handleLatestReading returns the district's most recent reading annotated
// with its AQI level.
// GET /districts/:id/latest
func (s *Server) handleLatestReading(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	d, internalID, ok := s.districtWithInternalID(ctx, c)
	if !ok {
		return
	}

	reading, err := s.repo.GetLatestReading(ctx, internalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if reading == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no readings for district"})
		return
	}

	resp := gin.H{"district": d, "reading": reading}
	if reading.AQIValue != nil {
		resp["level"] = analytics.AQILevel(*reading.AQIValue)
	}
	c.JSON(http.StatusOK, resp)
}

// handleTrend returns the per-day AQI trend over the trailing window.
// GET /districts/:id/trend?days=7
func (s *Server) handleTrend(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	_, internalID, ok := s.districtWithInternalID(ctx, c)
	if !ok {
		return
	}

	days, ok := s.intQuery(c, "days", s.cfg.TrendDays)
	if !ok {
		return
	}

	points, err := analytics.Trend(ctx, s.repo, internalID, days, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": points, "meta": gin.H{"count": len(points), "window_days": days}})
}

type forecastWithLevel struct {
	store.ForecastPoint
	Level *analytics.Level `json:"level,omitempty"`
}

// handleForecastWindow returns future forecast points up to days ahead, each
// annotated with its AQI level.
// GET /districts/:id/forecast?days=7
func (s *Server) handleForecastWindow(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	_, internalID, ok := s.districtWithInternalID(ctx, c)
	if !ok {
		return
	}

	days, ok := s.intQuery(c, "days", s.cfg.ForecastDays)
	if !ok {
		return
	}

	points, err := s.repo.GetForecastWindow(ctx, internalID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	annotated := make([]forecastWithLevel, 0, len(points))
	for _, p := range points {
		fp := forecastWithLevel{ForecastPoint: p}
		if p.AQIValue != nil {
			level := analytics.AQILevel(*p.AQIValue)
			fp.Level = &level
		}
		annotated = append(annotated, fp)
	}
	c.JSON(http.StatusOK, gin.H{"data": annotated, "meta": gin.H{"count": len(annotated)}})
}

type rankedWithLevel struct {
	store.RankedDistrict
	Level *analytics.Level `json:"level,omitempty"`
}

// handleCompare returns the full ranking for one date and component, ordered
// by rank, each row annotated with the AQI level of its average.
// GET /compare?date=2026-08-24&component=pm25
func (s *Server) handleCompare(c *gin.Context) {
	date, ok := s.dateQuery(c, "date", time.Now().UTC())
	if !ok {
		return
	}
	component := c.DefaultQuery("component", "pm25")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	ranked, err := s.repo.CompareDistricts(ctx, date, component)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	annotated := make([]rankedWithLevel, 0, len(ranked))
	for _, r := range ranked {
		rl := rankedWithLevel{RankedDistrict: r}
		if r.Entry.AQIAvg != nil {
			level := analytics.AQILevel(*r.Entry.AQIAvg)
			rl.Level = &level
		}
		annotated = append(annotated, rl)
	}
	c.JSON(http.StatusOK, gin.H{"data": annotated, "meta": gin.H{"count": len(annotated), "date": date.Format("2006-01-02")}})
}

// handleNearestGrid returns the k grid points closest to a coordinate within
// the most recent snapshot.
// GET /grid/nearest?lat=21.03&lon=105.85&k=3
func (s *Server) handleNearestGrid(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat"})
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lon"})
		return
	}
	k, ok := s.intQuery(c, "k", 5)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	points, err := analytics.NearestGridPoints(ctx, s.repo, lat, lon, k)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": points, "meta": gin.H{"count": len(points)}})
}

// handleHistorical returns the province-wide daily series for a date range.
// GET /historical?from=2026-08-01&to=2026-08-24
func (s *Server) handleHistorical(c *gin.Context) {
	now := time.Now().UTC()
	from, ok := s.dateQuery(c, "from", now.AddDate(0, 0, -s.cfg.HistoricalDays))
	if !ok {
		return
	}
	to, ok := s.dateQuery(c, "to", now)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	points, err := s.repo.ListHistorical(ctx, store.SeedProvinceID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": points, "meta": gin.H{"count": len(points)}})
}

// handleAuditLog lists ingestion audit entries, newest first.
// GET /audit?endpoint=rankings&since=2026-08-01T00:00:00Z&limit=50
func (s *Server) handleAuditLog(c *gin.Context) {
	q := store.IngestionLogQuery{Endpoint: c.Query("endpoint"), Limit: 100}

	if sinceStr := c.Query("since"); sinceStr != "" {
		t, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp"})
			return
		}
		q.Since = &t
	}
	if untilStr := c.Query("until"); untilStr != "" {
		t, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid until timestamp"})
			return
		}
		q.Until = &t
	}
	var ok bool
	if q.Limit, ok = s.intQuery(c, "limit", q.Limit); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	entries, err := s.repo.ListIngestionLogs(ctx, q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries, "meta": gin.H{"count": len(entries)}})
}

// districtWithInternalID resolves the path district and requires it to carry
// an internal id, the key of the measurement series. Writes the error response
// itself when it returns ok=false.
func (s *Server) districtWithInternalID(ctx context.Context, c *gin.Context) (*store.District, string, bool) {
	d, err := s.resolveDistrict(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, "", false
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "district not found"})
		return nil, "", false
	}
	if d.InternalID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "district has no measurement data yet"})
		return nil, "", false
	}
	return d, *d.InternalID, true
}

func (s *Server) intQuery(c *gin.Context, name string, def int) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

func (s *Server) dateQuery(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return def.Truncate(24 * time.Hour), true
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return time.Time{}, false
	}
	return t, true
}
