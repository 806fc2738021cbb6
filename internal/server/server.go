// Package server exposes the REST API: competitor management, on-demand
// ingestion, the dashboard feed and KPI endpoints, the insights view, and
// the manual digest trigger.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"competetrack/internal/classify"
	"competetrack/internal/database"
	"competetrack/internal/digest"
	"competetrack/internal/ingest"
)

// timeAgoFormat is the timestamp precision shown in the dashboard feed.
const timeAgoFormat = "2006-01-02 15:04"

// Ingester runs the fetch-and-summarize pipeline for one competitor.
type Ingester interface {
	Run(ctx context.Context, c database.Competitor) (ingest.Result, error)
}

// DigestRunner sends the weekly digest for the window ending at now.
type DigestRunner interface {
	Run(now time.Time) (int, error)
}

// Server holds the API dependencies.
type Server struct {
	db        *database.DB
	ingester  Ingester
	digest    DigestRunner
	recipient string
}

// New creates the API server. recipient is echoed in the manual digest
// response so the UI can tell the user where to look.
func New(db *database.DB, ingester Ingester, digestRunner DigestRunner, recipient string) *Server {
	return &Server{db: db, ingester: ingester, digest: digestRunner, recipient: recipient}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/competitors", s.handleListCompetitors)
	r.POST("/api/add-competitor", s.handleAddCompetitor)
	r.DELETE("/api/competitors/:name", s.handleDeleteCompetitor)
	r.POST("/api/fetch-and-summarize", s.handleFetchAndSummarize)
	r.GET("/api/dashboard-feed", s.handleDashboardFeed)
	r.GET("/api/insights", s.handleInsights)
	r.PUT("/api/insights/:id/status", s.handleUpdateInsightStatus)
	r.GET("/api/dashboard/kpis", s.handleKPIs)
	r.POST("/api/send-digest-now", s.handleSendDigestNow)
	return r
}

// Run serves the API on the given port until the listener fails.
func (s *Server) Run(port int) error {
	return s.Router().Run(fmt.Sprintf(":%d", port))
}

func (s *Server) handleListCompetitors(c *gin.Context) {
	competitors, err := s.db.ListCompetitors()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(competitors))
	for _, comp := range competitors {
		description := comp.Description
		if description == "" {
			description = "AI/SaaS competitor"
		}
		out = append(out, gin.H{
			"name":        comp.Name,
			"website":     comp.Website,
			"rss":         comp.FeedURL,
			"description": description,
		})
	}
	c.JSON(http.StatusOK, out)
}

type addCompetitorRequest struct {
	Name        string `json:"competitor_name"`
	RSSLink     string `json:"rss_link"`
	WebpageLink string `json:"webpage_link"`
	Description string `json:"description"`
}

func (s *Server) handleAddCompetitor(c *gin.Context) {
	var req addCompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON payload.", "status": "error"})
		return
	}
	if req.Name == "" || req.RSSLink == "" || req.WebpageLink == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields: name, RSS, or website.", "status": "error"})
		return
	}

	_, err := s.db.InsertCompetitor(req.Name, req.WebpageLink, req.RSSLink, req.Description)
	if errors.Is(err, database.ErrCompetitorExists) {
		c.JSON(http.StatusConflict, gin.H{"message": fmt.Sprintf("Competitor %q already exists.", req.Name), "status": "error"})
		return
	}
	if err != nil {
		log.Printf("server: add competitor %s: %v", req.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error during save.", "status": "error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Competitor %q successfully added to the database.", req.Name),
		"status":  "success",
	})
}

func (s *Server) handleDeleteCompetitor(c *gin.Context) {
	name := c.Param("name")
	found, err := s.db.DeleteCompetitor(name)
	if err != nil {
		log.Printf("server: delete competitor %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error during deletion.", "status": "error"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("Competitor %q not found.", name), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Competitor %q and associated articles deleted successfully.", name),
		"status":  "success",
	})
}

type fetchRequest struct {
	Name string `json:"competitor_name"`
}

func (s *Server) handleFetchAndSummarize(c *gin.Context) {
	var req fetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload."})
		return
	}

	comp, err := s.db.GetCompetitor(req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if comp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Competitor %s not found in database", req.Name)})
		return
	}

	res, err := s.ingester.Run(c.Request.Context(), *comp)
	if err != nil {
		log.Printf("server: fetch-and-summarize %s: %v", req.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("An error occurred: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            fmt.Sprintf("Processed %d items. Added %d new articles/insights for %s.", res.Processed, res.Added, req.Name),
		"new_articles_count": res.Added,
	})
}

func (s *Server) handleDashboardFeed(c *gin.Context) {
	articles, err := s.db.RecentArticles(20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	feed := make([]gin.H, 0, len(articles))
	for _, a := range articles {
		view := classify.Feed(a.Title, a.Summary)
		feed = append(feed, gin.H{
			"id":         a.ID,
			"competitor": a.Competitor,
			"time_ago":   shortTime(a.FetchedAt),
			"title":      a.Title,
			"summary":    view.Summary,
			"tags":       view.Tags,
			"source_url": a.URL,
			"status":     a.Status,
			"severity":   view.Severity,
		})
	}
	c.JSON(http.StatusOK, feed)
}

func (s *Server) handleInsights(c *gin.Context) {
	articles, err := s.db.ArticlesByStatus(database.StatusPending, database.StatusActioned)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	highPriority := 0
	insights := make([]gin.H, 0, len(articles))
	for _, a := range articles {
		view := classify.Insight(a.Title, a.Summary)
		if view.Priority == classify.PriorityHigh {
			highPriority++
		}
		insights = append(insights, gin.H{
			"id":           a.ID,
			"competitor":   a.Competitor,
			"title":        a.Title,
			"summary":      view.Summary,
			"category":     view.Category,
			"priority":     view.Priority,
			"status":       a.Status,
			"action_notes": nil,
			"tags":         view.Tags,
		})
	}

	stats, err := s.db.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"insights": insights,
		"kpis": gin.H{
			"pending_actions": stats.PendingArticles,
			"high_priority":   highPriority,
			"total_insights":  stats.TotalArticles,
		},
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateInsightStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid insight id."})
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing status field."})
		return
	}

	found, err := s.db.UpdateArticleStatus(id, req.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Insight not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Insight %d status updated to %s.", id, req.Status)})
}

func (s *Server) handleKPIs(c *gin.Context) {
	pending, err := s.db.CountByStatus(database.StatusPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	critical, err := s.db.CountCriticalTitles(classify.KPICriticalKeywords)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	recent, err := s.db.CountSince(time.Now().UTC().Add(-24 * time.Hour))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unread_changes":   pending,
		"critical_updates": critical,
		"last_24_hours":    recent,
	})
}

// handleSendDigestNow counts the current digest window, fires the actual
// send in the background, and replies immediately. Bypasses the
// scheduler's daily guard.
func (s *Server) handleSendDigestNow(c *gin.Context) {
	now := time.Now().UTC()
	insights, err := digest.Select(s.db, now)
	if err != nil {
		log.Printf("server: digest selection: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("An error occurred during digest send: %v", err)})
		return
	}

	if len(insights) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message":        "Digest initiated, but no high-priority insights found in the last 7 days to send.",
			"insights_count": 0,
		})
		return
	}

	go func() {
		if _, err := s.digest.Run(now); err != nil {
			log.Printf("server: manual digest send failed: %v", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"message":        fmt.Sprintf("Digest initiated. Check your inbox (%s) soon.", s.recipient),
		"insights_count": len(insights),
	})
}

// shortTime trims a stored timestamp to minute precision for display.
func shortTime(fetchedAt string) string {
	t, err := time.Parse(database.TimeFormat, fetchedAt)
	if err != nil {
		return fetchedAt
	}
	return t.Format(timeAgoFormat)
}
