// Package fakeapi serves a small in-memory InvenTree style REST API for tests.
package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

const (
	Username = "admin"
	Password = "inventree"
	Token    = "inv-test-token"
)

// Recorded is a request observed by the server.
type Recorded struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

// Server is an httptest server backed by a gin engine.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	parts    []map[string]any
	nextPK   int
	requests []Recorded

	// ListStatus forces a status code on list requests when non-zero.
	ListStatus int
	// ListBody replaces the list response body when non-empty.
	ListBody string
	// Methods are the actions advertised by OPTIONS.
	Methods []string
	// OmitActions leaves the actions object out of OPTIONS responses.
	OmitActions bool
	// DeleteStatus forces a status code on bulk delete when non-zero.
	DeleteStatus int
}

// New starts a server seeded with a handful of parts.
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		parts:   seedParts(),
		Methods: []string{http.MethodPost, http.MethodGet},
	}
	s.nextPK = len(s.parts) + 1

	r := gin.New()
	r.Use(s.record)

	api := r.Group("/api")
	{
		api.GET("/part/", s.listParts)
		api.OPTIONS("/part/", s.partOptions)
		api.POST("/part/", s.createPart)
		api.DELETE("/part/", s.bulkDelete)
		api.GET("/part/:pk/", s.getPart)
		api.GET("/bare/", func(c *gin.Context) {
			c.JSON(http.StatusOK, []gin.H{{"pk": 1, "name": "one"}, {"pk": 2, "name": "two"}})
		})
	}

	accounts := gin.Accounts{Username: Password}
	r.GET("/api/user/token/", gin.BasicAuth(accounts), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": Token, "name": c.Query("name")})
	})

	s.Server = httptest.NewServer(r)
	return s
}

// Requests returns the recorded requests matching method, or all when method is empty.
func (s *Server) Requests(method string) []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rv []Recorded
	for _, r := range s.requests {
		if method == "" || r.Method == method {
			rv = append(rv, r)
		}
	}
	return rv
}

// PartCount returns the number of parts currently stored.
func (s *Server) PartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.parts)
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(strings.NewReader(string(body)))
	}
	s.mu.Lock()
	s.requests = append(s.requests, Recorded{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
		Body:   string(body),
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) listParts(c *gin.Context) {
	if s.ListStatus != 0 {
		c.JSON(s.ListStatus, gin.H{"detail": http.StatusText(s.ListStatus)})
		return
	}
	if s.ListBody != "" {
		c.Data(http.StatusOK, "application/json", []byte(s.ListBody))
		return
	}

	s.mu.Lock()
	rows := make([]map[string]any, 0, len(s.parts))
	for _, p := range s.parts {
		if matches(p, c.Query("search"), c.Query("category")) {
			rows = append(rows, p)
		}
	}
	s.mu.Unlock()

	if ordering := c.Query("ordering"); ordering != "" {
		sortRows(rows, ordering)
	}

	limit, hasLimit := c.GetQuery("limit")
	if !hasLimit {
		c.JSON(http.StatusOK, rows)
		return
	}

	count := len(rows)
	n, _ := strconv.Atoi(limit)
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset > len(rows) {
		offset = len(rows)
	}
	end := offset + n
	if n <= 0 || end > len(rows) {
		end = len(rows)
	}

	c.JSON(http.StatusOK, gin.H{"count": count, "results": rows[offset:end]})
}

func (s *Server) getPart(c *gin.Context) {
	pk, err := strconv.Atoi(c.Param("pk"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid pk"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.parts {
		if p["pk"] == pk {
			c.JSON(http.StatusOK, p)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

func (s *Server) createPart(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if name, _ := body["name"].(string); name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"name": []string{"This field is required."}})
		return
	}

	s.mu.Lock()
	body["pk"] = s.nextPK
	s.nextPK++
	s.parts = append(s.parts, body)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, body)
}

func (s *Server) bulkDelete(c *gin.Context) {
	if s.DeleteStatus != 0 {
		c.JSON(s.DeleteStatus, gin.H{"detail": http.StatusText(s.DeleteStatus)})
		return
	}

	var body struct {
		Items []any `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"List of items must be provided"}})
		return
	}

	remove := map[string]bool{}
	for _, item := range body.Items {
		remove[fmt.Sprint(item)] = true
	}

	s.mu.Lock()
	kept := s.parts[:0]
	for _, p := range s.parts {
		if !remove[fmt.Sprint(p["pk"])] {
			kept = append(kept, p)
		}
	}
	s.parts = kept
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}

func (s *Server) partOptions(c *gin.Context) {
	body := gin.H{
		"name":        "Part List",
		"description": "List of parts.",
	}
	if !s.OmitActions {
		actions := gin.H{}
		for _, m := range s.Methods {
			actions[m] = partFields()
		}
		body["actions"] = actions
	}
	c.JSON(http.StatusOK, body)
}

func partFields() gin.H {
	return gin.H{
		"pk": gin.H{"type": "integer", "label": "ID", "read_only": true},
		"name": gin.H{
			"type": "string", "label": "Name", "required": true,
			"help_text": "Part name", "max_length": 100,
		},
		"IPN":    gin.H{"type": "string", "label": "IPN", "help_text": "Internal Part Number"},
		"active": gin.H{"type": "boolean", "label": "Active", "default": true},
		"in_stock": gin.H{
			"type": "float", "label": "In Stock", "read_only": true,
		},
		"category": gin.H{
			"type": "related field", "label": "Category", "model": "partcategory",
			"api_url": "/api/part/category/",
		},
		"units": gin.H{
			"type": "choice", "label": "Units",
			"choices": []gin.H{{"value": "pcs", "display_name": "Pieces"}, {"value": "m", "display_name": "Metres"}},
		},
		"supplier": gin.H{
			"type": "nested object", "label": "Supplier",
			"children": gin.H{
				"name": gin.H{"type": "string", "label": "Supplier Name"},
				"url":  gin.H{"type": "url", "label": "Website"},
			},
		},
	}
}

func seedParts() []map[string]any {
	return []map[string]any{
		{"pk": 1, "name": "Resistor 10k", "IPN": "R-10K", "active": true, "in_stock": 1200.0, "category": 3, "units": "pcs"},
		{"pk": 2, "name": "Capacitor 100nF", "IPN": "C-100N", "active": true, "in_stock": 800.0, "category": 4, "units": "pcs"},
		{"pk": 3, "name": "Wire red", "IPN": "W-RED", "active": false, "in_stock": 12.5, "category": 5, "units": "m"},
		{"pk": 7, "name": "Resistor 1k", "IPN": "R-1K", "active": true, "in_stock": 50.0, "category": 3, "units": "pcs"},
		{"pk": 12, "name": "LED green", "IPN": "LED-G", "active": true, "in_stock": 300.0, "category": 6, "units": "pcs"},
	}
}

func matches(p map[string]any, search, category string) bool {
	if category != "" && fmt.Sprint(p["category"]) != category {
		return false
	}
	if search == "" {
		return true
	}
	name, _ := p["name"].(string)
	return strings.Contains(strings.ToLower(name), strings.ToLower(search))
}

func sortRows(rows []map[string]any, ordering string) {
	desc := strings.HasPrefix(ordering, "-")
	key := strings.TrimPrefix(ordering, "-")
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][key], rows[j][key]
		if desc {
			return compare(a, b) > 0
		}
		return compare(a, b) < 0
	})
}

func compare(a, b any) int {
	switch av := a.(type) {
	case int:
		bv, _ := b.(int)
		return av - bv
	case float64:
		bv, _ := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	default:
		as, _ := a.(string)
		bs, _ := b.(string)
		return strings.Compare(as, bs)
	}
}
