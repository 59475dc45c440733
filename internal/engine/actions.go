// File: internal/engine/actions.go
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SessionActionParams describe one action run against a saved session.
type SessionActionParams struct {
	Site         string
	Action       string
	CustomScript string
	Parameters   map[string]any
}

// ActionResult reports an action run. Session problems (missing,
// expired) come back as a failed result with a hint, not as an error.
type ActionResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// Email is one row scraped from the Gmail inbox list.
type Email struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
	Time    string `json:"time"`
}

// actionFunc executes one site-specific action on an authenticated
// page.
type actionFunc func(ctx context.Context, e *Engine, p *Page, params map[string]any) (any, error)

// sessionActions maps (site, action) to its strategy. Unregistered
// pairs fail with ErrActionNotImplemented.
var sessionActions = map[string]map[string]actionFunc{
	"gmail": {
		"read_emails": gmailReadEmails,
		"send_email":  gmailSendEmail,
	},
	"facebook": {
		"get_messages": facebookGetMessages,
		"post_content": facebookPostContent,
	},
}

// SessionAction restores a saved session into a fresh tab and runs
// the requested action. Expiry is checked before any tab opens.
func (e *Engine) SessionAction(ctx context.Context, params SessionActionParams) (*ActionResult, error) {
	rec, err := e.sessions.Load(params.Site)
	if err != nil {
		return &ActionResult{
			Success: false,
			Error:   err.Error(),
			Hint:    "You may need to login again",
		}, nil
	}

	p, err := e.newPage(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	if rec.UserAgent != "" {
		if err := p.SetUserAgent(ctx, rec.UserAgent); err != nil {
			return nil, err
		}
	}
	if err := p.SetCookies(ctx, rec.Cookies); err != nil {
		return nil, err
	}

	data, err := e.dispatchAction(ctx, p, params)
	if err != nil {
		e.logger.Warn("Session action failed",
			zap.String("site", params.Site),
			zap.String("action", params.Action),
			zap.Error(err))
		return &ActionResult{
			Success: false,
			Error:   err.Error(),
			Hint:    "You may need to login again",
		}, nil
	}

	return &ActionResult{Success: true, Data: data}, nil
}

func (e *Engine) dispatchAction(ctx context.Context, p *Page, params SessionActionParams) (any, error) {
	if params.Action == "custom" && params.CustomScript != "" {
		var result any
		if err := p.Evaluate(ctx, params.CustomScript, &result); err != nil {
			return nil, err
		}
		return result, nil
	}

	siteActions, ok := sessionActions[params.Site]
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", ErrActionNotImplemented, params.Action, params.Site)
	}
	fn, ok := siteActions[params.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", ErrActionNotImplemented, params.Action, params.Site)
	}
	return fn(ctx, e, p, params.Parameters)
}

const gmailInboxJS = `(function() {
	const emailRows = document.querySelectorAll('tr.zA');
	return Array.from(emailRows).slice(0, 10).map(row => ({
		from: row.querySelector('.yW')?.textContent || '',
		subject: row.querySelector('.y6')?.textContent || '',
		snippet: row.querySelector('.y2')?.textContent || '',
		time: row.querySelector('.xW')?.textContent || ''
	}));
})()`

func gmailReadEmails(ctx context.Context, e *Engine, p *Page, _ map[string]any) (any, error) {
	if err := p.Navigate(ctx, "https://mail.google.com", e.cfg.Network.NavigationTimeout); err != nil {
		return nil, err
	}
	if err := p.WaitVisible(ctx, "tr.zA", e.cfg.Network.LoginVerifyTimeout); err != nil {
		return nil, fmt.Errorf("inbox rows never appeared: %w", err)
	}
	var emails []Email
	if err := p.Evaluate(ctx, gmailInboxJS, &emails); err != nil {
		return nil, err
	}
	return map[string]any{"emails": emails}, nil
}

func gmailSendEmail(ctx context.Context, e *Engine, p *Page, params map[string]any) (any, error) {
	to, _ := params["to"].(string)
	subject, _ := params["subject"].(string)
	body, _ := params["body"].(string)
	if to == "" {
		return nil, fmt.Errorf("send_email needs a \"to\" parameter")
	}

	if err := p.Navigate(ctx, "https://mail.google.com", e.cfg.Network.NavigationTimeout); err != nil {
		return nil, err
	}
	// Compose button.
	if err := p.Click(ctx, ".T-I.T-I-KE"); err != nil {
		return nil, err
	}
	if err := e.humanDelay(ctx, 500*time.Millisecond, 2*time.Second); err != nil {
		return nil, err
	}

	fields := []struct{ selector, text string }{
		{`input[name="to"]`, to},
		{`input[name="subjectbox"]`, subject},
		{`div[role="textbox"]`, body},
	}
	for _, f := range fields {
		if err := p.Click(ctx, f.selector); err != nil {
			return nil, err
		}
		if err := p.sim.TypeText(ctx, f.text); err != nil {
			return nil, err
		}
	}

	// Ctrl+Enter sends the draft.
	if err := p.SendShortcut(ctx, "Enter", true); err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "message": "Email sent"}, nil
}

func facebookGetMessages(ctx context.Context, e *Engine, p *Page, _ map[string]any) (any, error) {
	if err := p.Navigate(ctx, "https://www.facebook.com/messages", e.cfg.Network.NavigationTimeout); err != nil {
		return nil, err
	}
	// Thread contents render inside a React tree with volatile class
	// names; surface the conversation list only.
	var threads []string
	const threadJS = `(function() {
		return Array.from(document.querySelectorAll('[role="row"] span'))
			.map(el => el.textContent.trim())
			.filter(t => t.length > 0)
			.slice(0, 20);
	})()`
	if err := p.Evaluate(ctx, threadJS, &threads); err != nil {
		return nil, err
	}
	return map[string]any{"messages": threads}, nil
}

func facebookPostContent(ctx context.Context, e *Engine, p *Page, params map[string]any) (any, error) {
	content, _ := params["content"].(string)
	if content == "" {
		return nil, fmt.Errorf("post_content needs a \"content\" parameter")
	}

	if err := p.Navigate(ctx, "https://www.facebook.com", e.cfg.Network.NavigationTimeout); err != nil {
		return nil, err
	}
	if err := p.Click(ctx, `[role="button"][aria-label*="What's on your mind"]`); err != nil {
		return nil, err
	}
	if err := e.humanDelay(ctx, 500*time.Millisecond, 2*time.Second); err != nil {
		return nil, err
	}
	if err := p.Click(ctx, `[role="textbox"]`); err != nil {
		return nil, err
	}
	if err := p.sim.TypeText(ctx, content); err != nil {
		return nil, err
	}
	if err := p.Click(ctx, `[aria-label="Post"]`); err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "message": "Posted to Facebook"}, nil
}
