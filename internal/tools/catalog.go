// File: internal/tools/catalog.go
package tools

// Catalog returns the descriptors for the ten browser automation
// tools, in the order transports list them.
func Catalog() []Descriptor {
	return []Descriptor{
		{
			Name:        "brave_scrape",
			Description: "Scrape a web page's content with the Brave browser",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"url":             {Type: "string", Description: "The URL to scrape"},
					"waitForSelector": {Type: "string", Description: "CSS selector to wait for"},
					"waitTime":        {Type: "number", Description: "Extra wait time in milliseconds"},
					"screenshot":      {Type: "boolean", Description: "Capture a screenshot"},
					"includeHtml":     {Type: "boolean", Description: "Include the full HTML in the result"},
				},
				Required: []string{"url"},
			},
		},
		{
			Name:        "brave_crawl",
			Description: "Crawl a site by following links across multiple pages",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"startUrl":       {Type: "string", Description: "Starting URL"},
					"maxPages":       {Type: "number", Description: "Maximum number of pages (default: 10)"},
					"sameDomain":     {Type: "boolean", Description: "Stay on the starting domain (default: true)"},
					"includePattern": {Type: "string", Description: "Regex pattern URLs must match"},
					"excludePattern": {Type: "string", Description: "Regex pattern for URLs to skip"},
				},
				Required: []string{"startUrl"},
			},
		},
		{
			Name:        "brave_search",
			Description: "Search with Brave Search",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"query": {Type: "string", Description: "Search query"},
					"limit": {Type: "number", Description: "Number of results (default: 10)"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "brave_login",
			Description: "Log in to a website (Gmail, Facebook, Twitter, etc.)",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"site": {
						Type:        "string",
						Enum:        []string{"gmail", "facebook", "twitter", "linkedin", "instagram", "custom"},
						Description: "Site to log in to",
					},
					"customUrl": {Type: "string", Description: "Login URL when site=\"custom\""},
					"credentials": {
						Type: "object",
						Properties: map[string]Property{
							"username": {Type: "string", Description: "Email or username"},
							"password": {Type: "string", Description: "Password"},
							"totp":     {Type: "string", Description: "2FA code (optional)"},
						},
						Required: []string{"username", "password"},
					},
					"saveSession": {
						Type:        "boolean",
						Description: "Persist the session for later use",
						Default:     true,
					},
				},
				Required: []string{"site", "credentials"},
			},
		},
		{
			Name:        "brave_session_action",
			Description: "Run an action using a saved login session",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"site": {Type: "string", Description: "Which site (e.g. gmail, facebook)"},
					"action": {
						Type: "string",
						Enum: []string{
							"read_emails", "send_email", "get_messages", "post_content",
							"download_data", "export_contacts", "backup_photos", "custom",
						},
						Description: "Action to run",
					},
					"customScript": {Type: "string", Description: "JavaScript to run when action=\"custom\""},
					"parameters":   {Type: "object", Description: "Action parameters"},
				},
				Required: []string{"site", "action"},
			},
		},
		{
			Name:        "brave_list_sessions",
			Description: "List saved sessions",
			InputSchema: Schema{
				Type:       "object",
				Properties: map[string]Property{},
			},
		},
		{
			Name:        "brave_clear_sessions",
			Description: "Delete saved sessions",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"site": {Type: "string", Description: "Site whose session to delete, or \"all\""},
				},
				Required: []string{"site"},
			},
		},
		{
			Name:        "brave_visual_captcha",
			Description: "Handle a CAPTCHA visually from a screenshot",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"action": {
						Type:        "string",
						Enum:        []string{"capture", "click", "type", "refresh"},
						Description: "What to do",
					},
					"coordinates": {
						Type: "object",
						Properties: map[string]Property{
							"x": {Type: "number"},
							"y": {Type: "number"},
						},
						Description: "Click coordinates",
					},
					"text": {Type: "string", Description: "Text to type"},
					"url":  {Type: "string", Description: "Page to open first (optional)"},
				},
				Required: []string{"action"},
			},
		},
		{
			Name:        "brave_mouse_control",
			Description: "Full mouse control: move, click, drag",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"action": {
						Type: "string",
						Enum: []string{
							"move", "click", "doubleClick", "rightClick",
							"drag", "hover", "screenshot_with_cursor",
						},
						Description: "Mouse action",
					},
					"x":        {Type: "number", Description: "X coordinate"},
					"y":        {Type: "number", Description: "Y coordinate"},
					"targetX":  {Type: "number", Description: "Target X (for drag)"},
					"targetY":  {Type: "number", Description: "Target Y (for drag)"},
					"duration": {Type: "number", Description: "Motion duration in milliseconds"},
					"url":      {Type: "string", Description: "Page to open first (optional)"},
				},
				Required: []string{"action"},
			},
		},
		{
			Name:        "brave_visual_inspect",
			Description: "Visual element detection and interaction",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"mode": {
						Type:        "string",
						Enum:        []string{"full_analysis", "find_element", "interactive_map"},
						Description: "Inspection mode",
					},
					"query": {Type: "string", Description: "What to look for (e.g. \"red button\", \"sign in\")"},
					"url":   {Type: "string", Description: "Page to open first (optional)"},
				},
				Required: []string{"mode"},
			},
		},
	}
}
