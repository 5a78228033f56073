package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// job is a demo listing served by /api/jobs.
type job struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Sector string `json:"sector"`
}

// testimonial is a demo entry served by /api/testimonials.
type testimonial struct {
	ID     int    `json:"id"`
	Author string `json:"author"`
	Quote  string `json:"quote"`
}

const jobsPageSize = 2

var (
	demoJobs = []job{
		{ID: 1, Title: "Backend Engineer", Sector: "it"},
		{ID: 2, Title: "Site Reliability Engineer", Sector: "it"},
		{ID: 3, Title: "Financial Analyst", Sector: "finance"},
		{ID: 4, Title: "Data Engineer", Sector: "it"},
		{ID: 5, Title: "Account Manager", Sector: "sales"},
	}

	demoTestimonials = []testimonial{
		{ID: 1, Author: "A. Client", Quote: "Fast turnaround and clear communication."},
		{ID: 2, Author: "B. Partner", Quote: "Reliable from the first week."},
	}
)

// listJobs filters by ?sector= and paginates by ?page= (1-based).
func listJobs(w http.ResponseWriter, r *http.Request) {
	sector := strings.ToLower(r.URL.Query().Get("sector"))
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	filtered := make([]job, 0, len(demoJobs))
	for _, j := range demoJobs {
		if sector == "" || j.Sector == sector {
			filtered = append(filtered, j)
		}
	}

	start := (page - 1) * jobsPageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + jobsPageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":  page,
		"total": len(filtered),
		"jobs":  filtered[start:end],
	})
}

func listTestimonials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"testimonials": demoTestimonials})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
