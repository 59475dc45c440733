// File: internal/engine/handlers.go
package engine

import (
	"context"
	"time"

	"github.com/Tamas54/bravectl/internal/session"
	"github.com/Tamas54/bravectl/internal/tools"
)

// RegisterTools binds every catalog tool to its engine operation.
// Transports dispatch through the returned registry only.
func (e *Engine) RegisterTools(reg *tools.Registry) error {
	handlers := map[string]tools.Handler{
		"brave_scrape":         e.handleScrape,
		"brave_crawl":          e.handleCrawl,
		"brave_search":         e.handleSearch,
		"brave_login":          e.handleLogin,
		"brave_session_action": e.handleSessionAction,
		"brave_list_sessions":  e.handleListSessions,
		"brave_clear_sessions": e.handleClearSessions,
		"brave_visual_captcha": e.handleVisualCaptcha,
		"brave_mouse_control":  e.handleMouseControl,
		"brave_visual_inspect": e.handleVisualInspect,
	}
	for _, desc := range tools.Catalog() {
		if err := reg.Register(desc, handlers[desc.Name]); err != nil {
			return err
		}
	}
	return nil
}

// ListSessions inventories the saved sessions.
func (e *Engine) ListSessions() (*session.Listing, error) {
	return e.sessions.List()
}

// ClearSessions deletes one site's session, or all of them.
func (e *Engine) ClearSessions(site string) (*session.ClearResult, error) {
	return e.sessions.Clear(site)
}

func (e *Engine) handleScrape(ctx context.Context, params map[string]any) (any, error) {
	return e.Scrape(ctx, getString(params, "url"), ScrapeOptions{
		WaitForSelector: getString(params, "waitForSelector"),
		WaitTime:        getMillis(params, "waitTime"),
		Screenshot:      getBool(params, "screenshot"),
		IncludeHTML:     getBool(params, "includeHtml"),
		IncludeLinks:    getBool(params, "includeLinks"),
	})
}

func (e *Engine) handleCrawl(ctx context.Context, params map[string]any) (any, error) {
	opts := CrawlOptions{
		MaxPages:       getInt(params, "maxPages"),
		IncludePattern: getString(params, "includePattern"),
		ExcludePattern: getString(params, "excludePattern"),
	}
	if v, ok := params["sameDomain"].(bool); ok {
		opts.SameDomain = &v
	}
	return e.Crawl(ctx, getString(params, "startUrl"), opts)
}

func (e *Engine) handleSearch(ctx context.Context, params map[string]any) (any, error) {
	return e.Search(ctx, getString(params, "query"), getInt(params, "limit"))
}

func (e *Engine) handleLogin(ctx context.Context, params map[string]any) (any, error) {
	creds, _ := params["credentials"].(map[string]any)
	saveSession := true
	if v, ok := params["saveSession"].(bool); ok {
		saveSession = v
	}
	return e.Login(ctx, LoginParams{
		Site:      getString(params, "site"),
		CustomURL: getString(params, "customUrl"),
		Credentials: Credentials{
			Username: getString(creds, "username"),
			Password: getString(creds, "password"),
			TOTP:     getString(creds, "totp"),
		},
		SaveSession: saveSession,
	})
}

func (e *Engine) handleSessionAction(ctx context.Context, params map[string]any) (any, error) {
	actionParams, _ := params["parameters"].(map[string]any)
	return e.SessionAction(ctx, SessionActionParams{
		Site:         getString(params, "site"),
		Action:       getString(params, "action"),
		CustomScript: getString(params, "customScript"),
		Parameters:   actionParams,
	})
}

func (e *Engine) handleListSessions(_ context.Context, _ map[string]any) (any, error) {
	return e.ListSessions()
}

func (e *Engine) handleClearSessions(_ context.Context, params map[string]any) (any, error) {
	return e.ClearSessions(getString(params, "site"))
}

func (e *Engine) handleVisualCaptcha(ctx context.Context, params map[string]any) (any, error) {
	p := VisualCaptchaParams{
		Action: getString(params, "action"),
		Text:   getString(params, "text"),
		URL:    getString(params, "url"),
	}
	if coords, ok := params["coordinates"].(map[string]any); ok {
		p.Coordinates = &Coordinates{
			X: getFloat(coords, "x"),
			Y: getFloat(coords, "y"),
		}
	}
	return e.VisualCaptcha(ctx, p)
}

func (e *Engine) handleMouseControl(ctx context.Context, params map[string]any) (any, error) {
	return e.MouseControl(ctx, MouseControlParams{
		Action:   getString(params, "action"),
		X:        getFloat(params, "x"),
		Y:        getFloat(params, "y"),
		TargetX:  getFloat(params, "targetX"),
		TargetY:  getFloat(params, "targetY"),
		Duration: getMillis(params, "duration"),
		URL:      getString(params, "url"),
	})
}

func (e *Engine) handleVisualInspect(ctx context.Context, params map[string]any) (any, error) {
	return e.VisualInspect(ctx, VisualInspectParams{
		Mode:  getString(params, "mode"),
		Query: getString(params, "query"),
		URL:   getString(params, "url"),
	})
}

func getString(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	s, _ := params[key].(string)
	return s
}

func getBool(params map[string]any, key string) bool {
	if params == nil {
		return false
	}
	b, _ := params[key].(bool)
	return b
}

func getFloat(params map[string]any, key string) float64 {
	if params == nil {
		return 0
	}
	switch v := params[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func getInt(params map[string]any, key string) int {
	return int(getFloat(params, key))
}

func getMillis(params map[string]any, key string) time.Duration {
	return time.Duration(getFloat(params, key)) * time.Millisecond
}
