// File: internal/engine/login.go
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/humanoid"
	"github.com/Tamas54/bravectl/internal/session"
)

// Credentials carry a login's secrets. TOTP is optional and only
// consulted when the site challenges with 2FA.
type Credentials struct {
	Username string
	Password string
	TOTP     string
}

// LoginParams describe one login attempt.
type LoginParams struct {
	Site        string
	CustomURL   string
	Credentials Credentials
	SaveSession bool
}

// LoginProof is the in-page evidence collected after a login.
type LoginProof struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	UserName string `json:"userName"`
}

// LoginResult reports a login attempt. Failed logins still produce a
// result (with a diagnostic screenshot) rather than an error, so
// transports can hand the evidence back to the caller.
type LoginResult struct {
	Success      bool        `json:"success"`
	Site         string      `json:"site,omitempty"`
	Proof        *LoginProof `json:"proof,omitempty"`
	Message      string      `json:"message,omitempty"`
	SessionSaved bool        `json:"sessionSaved,omitempty"`
	Error        string      `json:"error,omitempty"`
	Screenshot   string      `json:"screenshot,omitempty"`
	Hint         string      `json:"hint,omitempty"`
}

// formPage is the slice of page behavior the login form flow drives.
// *Page satisfies it; tests drive the flow with a scripted fake, the
// same way the crawl frontier swaps its fetcher.
type formPage interface {
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	Evaluate(ctx context.Context, script string, out any) error
	TypeText(ctx context.Context, text string) error
}

const loginProofJS = `(function() {
	return {
		url: window.location.href,
		title: document.title,
		userName: document.querySelector('[data-testid="ProfileHeader_Name"]')?.textContent ||
			document.querySelector('.userName')?.textContent ||
			document.querySelector('[aria-label*="Account"]')?.textContent ||
			'Logged in'
	};
})()`

var twoFactorProbeSelectors = []string{
	`input[name="totp"]`,
	`input[name="code"]`,
	`input[placeholder*="code" i]`,
	`input[placeholder*="2fa" i]`,
	`input[aria-label*="code" i]`,
}

var twoFactorFillSelectors = []string{
	`input[name="totp"]`,
	`input[name="code"]`,
	`input[placeholder*="code" i]`,
}

// Login drives a site's login form with humanized input, handles a
// 2FA challenge when a TOTP code is available, and optionally
// persists the authenticated session.
func (e *Engine) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	p, err := e.newPage(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	result, err := e.runLogin(ctx, p, params)
	if err != nil {
		// Hand back what the page looked like when it went wrong.
		screenshot, shotErr := p.Screenshot(ctx, false)
		if shotErr != nil {
			e.logger.Warn("Could not capture failure screenshot", zap.Error(shotErr))
		}
		e.logger.Warn("Login failed",
			zap.String("site", params.Site), zap.Error(err))
		return &LoginResult{
			Success:    false,
			Error:      err.Error(),
			Screenshot: screenshot,
			Hint:       "Check the screenshot to see what went wrong",
		}, nil
	}
	return result, nil
}

func (e *Engine) runLogin(ctx context.Context, p *Page, params LoginParams) (*LoginResult, error) {
	// Slightly randomized viewport so repeat logins do not present
	// identical fingerprints.
	width := e.cfg.Browser.ViewportWidth + e.randIntn(100)
	height := e.cfg.Browser.ViewportHeight + e.randIntn(100)
	if err := p.Run(ctx, viewportAction(width, height)); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	profile, err := e.resolveProfile(ctx, params)
	if err != nil {
		return nil, err
	}

	loginURL := profile.URL
	if params.Site == "custom" {
		loginURL = params.CustomURL
	}
	if err := p.Navigate(ctx, loginURL, e.cfg.Network.NavigationTimeout); err != nil {
		return nil, err
	}

	// Idle mouse wander before touching the form.
	if err := p.sim.MoveTo(ctx, humanoid.Point{
		X: e.randFloat() * 1000,
		Y: e.randFloat() * 700,
	}, 0); err != nil {
		return nil, err
	}
	if err := e.humanDelay(ctx, 500*time.Millisecond, 2*time.Second); err != nil {
		return nil, err
	}

	if err := e.fillCredentials(ctx, p, profile, params.Credentials); err != nil {
		return nil, err
	}

	if err := e.verifyLogin(ctx, p, profile, params.Credentials); err != nil {
		return nil, err
	}

	if params.SaveSession {
		if err := e.saveSession(ctx, p, params.Site); err != nil {
			return nil, err
		}
	}

	var proof LoginProof
	if err := p.Evaluate(ctx, loginProofJS, &proof); err != nil {
		return nil, err
	}

	e.logger.Info("Login succeeded",
		zap.String("site", params.Site),
		zap.Bool("session_saved", params.SaveSession))

	return &LoginResult{
		Success:      true,
		Site:         params.Site,
		Proof:        &proof,
		Message:      "Successfully logged in",
		SessionSaved: params.SaveSession,
	}, nil
}

func (e *Engine) resolveProfile(ctx context.Context, params LoginParams) (loginProfile, error) {
	if params.Site == "custom" {
		if params.CustomURL == "" {
			return loginProfile{}, fmt.Errorf("%w: custom login needs customUrl", ErrUnsupportedSite)
		}
		return e.detectLoginProfile(ctx, params.CustomURL)
	}
	profile, ok := loginProfiles[params.Site]
	if !ok {
		return loginProfile{}, fmt.Errorf("%w: %s", ErrUnsupportedSite, params.Site)
	}
	return profile, nil
}

func (e *Engine) fillCredentials(ctx context.Context, p formPage, profile loginProfile, creds Credentials) error {
	if err := p.WaitVisible(ctx, profile.UsernameSelector, e.cfg.Network.SelectorTimeout); err != nil {
		return fmt.Errorf("username field: %w", err)
	}
	if err := p.Click(ctx, profile.UsernameSelector); err != nil {
		return err
	}
	if err := p.TypeText(ctx, creds.Username); err != nil {
		return err
	}

	if profile.Flow == flowSequential {
		// Username screen first; the password field only exists after
		// advancing.
		if profile.NextSelector != "" {
			if err := p.Click(ctx, profile.NextSelector); err != nil {
				return err
			}
		}
		if err := p.WaitVisible(ctx, profile.PasswordSelector, e.cfg.Network.SelectorTimeout); err != nil {
			return fmt.Errorf("password field: %w", err)
		}
		if err := p.Click(ctx, profile.PasswordSelector); err != nil {
			return err
		}
		if err := p.TypeText(ctx, creds.Password); err != nil {
			return err
		}
		return p.Click(ctx, profile.SubmitSelector)
	}

	if err := p.Click(ctx, profile.PasswordSelector); err != nil {
		return err
	}
	if err := p.TypeText(ctx, creds.Password); err != nil {
		return err
	}
	if err := e.humanDelay(ctx, 500*time.Millisecond, 2*time.Second); err != nil {
		return err
	}
	return p.Click(ctx, profile.SubmitSelector)
}

// verifyLogin waits for the logged-in marker, detouring through the
// 2FA challenge when one appears.
func (e *Engine) verifyLogin(ctx context.Context, p formPage, profile loginProfile, creds Credentials) error {
	if err := p.WaitVisible(ctx, profile.LoggedInSelector, e.cfg.Network.LoginVerifyTimeout); err == nil {
		return nil
	}

	needs2FA, err := e.detect2FA(ctx, p)
	if err != nil {
		return err
	}
	switch {
	case needs2FA && creds.TOTP != "":
		if err := e.submit2FA(ctx, p, creds.TOTP); err != nil {
			return err
		}
		if err := p.WaitVisible(ctx, profile.LoggedInSelector, e.cfg.Network.LoginVerifyTimeout); err != nil {
			return ErrLoginVerification
		}
		return nil
	case needs2FA:
		return ErrTwoFactorRequired
	default:
		return ErrLoginVerification
	}
}

func (e *Engine) detect2FA(ctx context.Context, p formPage) (bool, error) {
	for _, selector := range twoFactorProbeSelectors {
		var present bool
		script := fmt.Sprintf("document.querySelector(%q) !== null", selector)
		if err := p.Evaluate(ctx, script, &present); err != nil {
			return false, err
		}
		if present {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) submit2FA(ctx context.Context, p formPage, code string) error {
	for _, selector := range twoFactorFillSelectors {
		var present bool
		script := fmt.Sprintf("document.querySelector(%q) !== null", selector)
		if err := p.Evaluate(ctx, script, &present); err != nil {
			return err
		}
		if !present {
			continue
		}
		if err := p.Click(ctx, selector); err != nil {
			return err
		}
		if err := p.TypeText(ctx, code); err != nil {
			return err
		}
		var hasSubmit bool
		if err := p.Evaluate(ctx, `document.querySelector('button[type="submit"]') !== null`, &hasSubmit); err != nil {
			return err
		}
		if hasSubmit {
			return p.Click(ctx, `button[type="submit"]`)
		}
		return nil
	}
	return nil
}

func (e *Engine) saveSession(ctx context.Context, p *Page, site string) error {
	cookies, err := p.Cookies(ctx)
	if err != nil {
		return err
	}
	ua, err := p.UserAgent(ctx)
	if err != nil {
		return err
	}
	return e.sessions.Save(&session.Record{
		Site:      site,
		Cookies:   cookies,
		UserAgent: ua,
	})
}
