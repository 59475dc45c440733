// File: internal/tools/registry_test.go
package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCatalogRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(zap.NewNop())
	for _, desc := range Catalog() {
		desc := desc
		err := reg.Register(desc, func(_ context.Context, params map[string]any) (any, error) {
			return map[string]any{"tool": desc.Name, "params": params}, nil
		})
		require.NoError(t, err)
	}
	return reg
}

func TestCatalogListsTenTools(t *testing.T) {
	reg := newCatalogRegistry(t)
	descs := reg.Descriptors()
	require.Len(t, descs, 10)

	want := []string{
		"brave_scrape", "brave_crawl", "brave_search", "brave_login",
		"brave_session_action", "brave_list_sessions", "brave_clear_sessions",
		"brave_visual_captcha", "brave_mouse_control", "brave_visual_inspect",
	}
	for i, desc := range descs {
		assert.Equal(t, want[i], desc.Name)
		assert.NotEmpty(t, desc.Description)
		assert.Equal(t, "object", desc.InputSchema.Type)
	}
}

func TestCallUnknownTool(t *testing.T) {
	reg := newCatalogRegistry(t)
	_, err := reg.Call(context.Background(), "brave_teleport", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestRegisterDuplicateFails(t *testing.T) {
	reg := newCatalogRegistry(t)
	err := reg.Register(Descriptor{Name: "brave_scrape"}, func(context.Context, map[string]any) (any, error) {
		return nil, nil
	})
	assert.Error(t, err)
}

func TestCallValidatesMissingRequired(t *testing.T) {
	reg := newCatalogRegistry(t)
	_, err := reg.Call(context.Background(), "brave_scrape", map[string]any{})
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), "url")
}

func TestCallValidatesEnum(t *testing.T) {
	reg := newCatalogRegistry(t)
	_, err := reg.Call(context.Background(), "brave_login", map[string]any{
		"site":        "myspace",
		"credentials": map[string]any{"username": "a", "password": "b"},
	})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestCallAcceptsCaptchaRefresh(t *testing.T) {
	reg := newCatalogRegistry(t)
	result, err := reg.Call(context.Background(), "brave_visual_captcha", map[string]any{
		"action": "refresh",
	})
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestCallValidatesNestedRequired(t *testing.T) {
	reg := newCatalogRegistry(t)
	_, err := reg.Call(context.Background(), "brave_login", map[string]any{
		"site":        "gmail",
		"credentials": map[string]any{"username": "a"},
	})
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), "credentials.password")
}

func TestCallValidatesTypes(t *testing.T) {
	reg := newCatalogRegistry(t)

	cases := []struct {
		name   string
		tool   string
		params map[string]any
	}{
		{"url not string", "brave_scrape", map[string]any{"url": 42}},
		{"maxPages not number", "brave_crawl", map[string]any{"startUrl": "https://x", "maxPages": "ten"}},
		{"sameDomain not bool", "brave_crawl", map[string]any{"startUrl": "https://x", "sameDomain": "yes"}},
		{"coordinates not object", "brave_visual_captcha", map[string]any{"action": "click", "coordinates": "5,5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.Call(context.Background(), tc.tool, tc.params)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestCallPassesValidParams(t *testing.T) {
	reg := newCatalogRegistry(t)

	res, err := reg.Call(context.Background(), "brave_scrape", map[string]any{
		"url":        "https://example.com",
		"waitTime":   float64(500),
		"screenshot": true,
	})
	require.NoError(t, err)
	out := res.(map[string]any)
	assert.Equal(t, "brave_scrape", out["tool"])
}

func TestCallNilParamsAllowedWhenNothingRequired(t *testing.T) {
	reg := newCatalogRegistry(t)
	_, err := reg.Call(context.Background(), "brave_list_sessions", nil)
	assert.NoError(t, err)
}

func TestHandlerErrorsPropagate(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	boom := errors.New("browser crashed")
	require.NoError(t, reg.Register(Descriptor{Name: "broken", InputSchema: Schema{Type: "object"}},
		func(context.Context, map[string]any) (any, error) { return nil, boom }))

	_, err := reg.Call(context.Background(), "broken", nil)
	assert.ErrorIs(t, err, boom)
}
