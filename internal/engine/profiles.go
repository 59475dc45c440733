// File: internal/engine/profiles.go
package engine

import "context"

// loginFlow is how a site sequences its credential fields.
type loginFlow string

const (
	// flowSequential submits the username first and reveals the
	// password field on a second screen (Gmail, Twitter).
	flowSequential loginFlow = "sequential"
	// flowSimultaneous shows both fields on one form (Facebook,
	// LinkedIn, Instagram).
	flowSimultaneous loginFlow = "simultaneous"
)

// loginProfile holds the selectors that drive one site's login form.
type loginProfile struct {
	URL              string
	UsernameSelector string
	PasswordSelector string
	NextSelector     string
	SubmitSelector   string
	LoggedInSelector string
	Flow             loginFlow
}

var loginProfiles = map[string]loginProfile{
	"gmail": {
		URL:              "https://accounts.google.com",
		UsernameSelector: `input[type="email"]`,
		PasswordSelector: `input[type="password"]`,
		NextSelector:     "#identifierNext",
		SubmitSelector:   "#passwordNext",
		LoggedInSelector: `a[aria-label*="Google Account"]`,
		Flow:             flowSequential,
	},
	"facebook": {
		URL:              "https://www.facebook.com",
		UsernameSelector: `input[name="email"]`,
		PasswordSelector: `input[name="pass"]`,
		SubmitSelector:   `button[name="login"]`,
		LoggedInSelector: `div[role="navigation"]`,
		Flow:             flowSimultaneous,
	},
	"twitter": {
		URL:              "https://twitter.com/login",
		UsernameSelector: `input[autocomplete="username"]`,
		PasswordSelector: `input[type="password"]`,
		NextSelector:     `div[role="button"]`,
		SubmitSelector:   `div[data-testid="LoginForm_Login_Button"]`,
		LoggedInSelector: `a[aria-label="Profile"]`,
		Flow:             flowSequential,
	},
	"linkedin": {
		URL:              "https://www.linkedin.com/login",
		UsernameSelector: `input[id="username"]`,
		PasswordSelector: `input[id="password"]`,
		SubmitSelector:   `button[type="submit"]`,
		LoggedInSelector: `nav[role="navigation"]`,
		Flow:             flowSimultaneous,
	},
	"instagram": {
		URL:              "https://www.instagram.com/accounts/login/",
		UsernameSelector: `input[name="username"]`,
		PasswordSelector: `input[type="password"]`,
		SubmitSelector:   `button[type="submit"]`,
		LoggedInSelector: `svg[aria-label="Home"]`,
		Flow:             flowSimultaneous,
	},
}

const detectLoginFormJS = `(function() {
	const usernameSelectors = [
		'input[type="email"]',
		'input[name="username"]',
		'input[name="email"]',
		'input[id="username"]',
		'input[placeholder*="email" i]',
		'input[placeholder*="username" i]'
	];
	let usernameSelector = null;
	for (const selector of usernameSelectors) {
		if (document.querySelector(selector)) {
			usernameSelector = selector;
			break;
		}
	}

	const passwordSelector = 'input[type="password"]';

	const submitSelectors = [
		'button[type="submit"]',
		'input[type="submit"]'
	];
	let submitSelector = null;
	for (const selector of submitSelectors) {
		if (document.querySelector(selector)) {
			submitSelector = selector;
			break;
		}
	}

	return {
		url: window.location.href,
		usernameSelector: usernameSelector,
		passwordSelector: passwordSelector,
		submitSelector: submitSelector
	};
})()`

// detectLoginProfile probes a custom login page for its form fields.
// Returns ErrUnsupportedSite when no username field is discoverable.
func (e *Engine) detectLoginProfile(ctx context.Context, loginURL string) (loginProfile, error) {
	p, err := e.newPage(ctx)
	if err != nil {
		return loginProfile{}, err
	}
	defer p.Close()

	if err := p.Navigate(ctx, loginURL, e.cfg.Network.NavigationTimeout); err != nil {
		return loginProfile{}, err
	}

	var detected struct {
		URL              string `json:"url"`
		UsernameSelector string `json:"usernameSelector"`
		PasswordSelector string `json:"passwordSelector"`
		SubmitSelector   string `json:"submitSelector"`
	}
	if err := p.Evaluate(ctx, detectLoginFormJS, &detected); err != nil {
		return loginProfile{}, err
	}
	if detected.UsernameSelector == "" || detected.SubmitSelector == "" {
		return loginProfile{}, ErrUnsupportedSite
	}

	return loginProfile{
		URL:              loginURL,
		UsernameSelector: detected.UsernameSelector,
		PasswordSelector: detected.PasswordSelector,
		SubmitSelector:   detected.SubmitSelector,
		LoggedInSelector: `nav, [role="navigation"], a[href*="logout"], a[href*="signout"]`,
		Flow:             flowSimultaneous,
	}, nil
}
