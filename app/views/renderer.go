// Package views renders the operator dashboard with Liquid templates
package views

import (
	"fmt"
	"html"
	"strconv"
	"sync"

	"github.com/amirphl/above-fold-tracker/app/dto"
	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/osteele/liquid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Renderer turns report DTOs into HTML
type Renderer interface {
	Dashboard(page *dto.ListTrackingRecordsResponse, basePath string) (string, error)
	Detail(record *dto.TrackingRecordDTO) (string, error)
}

// LiquidRenderer renders the embedded templates, parsing each once
type LiquidRenderer struct {
	engine *liquid.Engine
	cache  sync.Map // template name -> *liquid.Template
}

func NewLiquidRenderer() *LiquidRenderer {
	engine := liquid.NewEngine()

	// All output goes through one of these two filters
	engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})
	engine.RegisterFilter("esc_url", func(s string) string {
		return html.EscapeString(businessflow.SanitizeURL(s))
	})
	engine.RegisterFilter("number_format", func(v int64) string {
		return formatThousands(v)
	})

	return &LiquidRenderer{engine: engine}
}

func (r *LiquidRenderer) render(name, source string, bindings map[string]any) (string, error) {
	if cached, ok := r.cache.Load(name); ok {
		out, err := cached.(*liquid.Template).RenderString(bindings)
		if err != nil {
			return "", fmt.Errorf("render %s: %w", name, err)
		}
		return out, nil
	}

	tpl, err := r.engine.ParseString(source)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}
	r.cache.Store(name, tpl)

	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out, nil
}

// Dashboard renders the full listing page. basePath is the page url without query.
func (r *LiquidRenderer) Dashboard(page *dto.ListTrackingRecordsResponse, basePath string) (string, error) {
	if page == nil {
		return "", fmt.Errorf("dashboard page is nil")
	}

	rows := make([]map[string]any, 0, len(page.Records))
	for _, rec := range page.Records {
		rows = append(rows, recordBindings(rec))
	}

	return r.render("dashboard", dashboardTemplate, map[string]any{
		"total":      page.Total,
		"showing":    len(page.Records),
		"per_page":   page.PerPage,
		"rows":       rows,
		"pagination": paginationBindings(page.Page, page.TotalPages, basePath),
	})
}

// Detail renders the fragment shown in the details modal
func (r *LiquidRenderer) Detail(record *dto.TrackingRecordDTO) (string, error) {
	if record == nil {
		return "", fmt.Errorf("record is nil")
	}
	return r.render("detail", detailTemplate, map[string]any{
		"record": recordBindings(*record),
	})
}

func recordBindings(rec dto.TrackingRecordDTO) map[string]any {
	links := make([]map[string]any, 0, len(rec.Links))
	for _, l := range rec.Links {
		links = append(links, map[string]any{"url": l.URL, "text": l.Text})
	}
	return map[string]any{
		"id":         rec.ID,
		"screen":     rec.Screen,
		"created_at": rec.CreatedAt,
		"links":      links,
	}
}

func paginationBindings(current, totalPages int, basePath string) map[string]any {
	pageURL := func(n int) string {
		return basePath + "?paged=" + strconv.Itoa(n)
	}

	pages := make([]map[string]any, 0, totalPages)
	for n := 1; n <= totalPages; n++ {
		pages = append(pages, map[string]any{
			"number":  n,
			"url":     pageURL(n),
			"current": n == current,
		})
	}

	out := map[string]any{
		"show":  totalPages > 1,
		"pages": pages,
	}
	if current > 1 {
		out["prev_url"] = pageURL(current - 1)
	}
	if current < totalPages {
		out["next_url"] = pageURL(current + 1)
	}
	return out
}

var numberPrinter = message.NewPrinter(language.English)

// formatThousands renders 12345 as "12,345"
func formatThousands(v int64) string {
	return numberPrinter.Sprintf("%d", v)
}
