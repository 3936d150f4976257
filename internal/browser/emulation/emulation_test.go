package emulation

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/webbind/api/schemas"
)

func TestAcceptLanguage(t *testing.T) {
	tests := []struct {
		name      string
		languages []string
		want      string
	}{
		{"Empty", nil, ""},
		{"Single", []string{"en-US"}, "en-US"},
		{"Two", []string{"en-US", "en"}, "en-US,en;q=0.9"},
		{"FloorsAtPointSeven", []string{"a", "b", "c", "d", "e", "f"}, "a,b;q=0.9,c;q=0.8,d;q=0.7,e;q=0.7,f;q=0.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AcceptLanguage(tt.languages))
		})
	}
}

func TestApply_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		action := Apply(schemas.DefaultPersona, nil)
		assert.NotNil(t, action)
	})
}

func TestApply_Browser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	var execPath string
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome"} {
		if p, err := exec.LookPath(name); err == nil {
			execPath = p
			break
		}
	}
	if execPath == "" {
		t.Skip("no Chromium binary on PATH")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.ExecPath(execPath), chromedp.NoSandbox)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()
	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 30*time.Second)
	defer cancelTimeout()

	persona := schemas.Persona{
		UserAgent:           "Mozilla/5.0 (EmulationTest/1.0)",
		Platform:            "TestOS",
		Languages:           []string{"de-DE", "de"},
		Width:               640,
		Height:              480,
		DevicePixelRatio:    2,
		HardwareConcurrency: 3,
	}

	var got struct {
		UserAgent string  `json:"userAgent"`
		Platform  string  `json:"platform"`
		Width     int64   `json:"width"`
		Ratio     float64 `json:"ratio"`
	}
	err := chromedp.Run(ctx,
		Apply(persona, zaptest.NewLogger(t)),
		chromedp.Navigate("about:blank"),
		chromedp.Evaluate(`({userAgent: navigator.userAgent, platform: navigator.platform, width: window.innerWidth, ratio: window.devicePixelRatio})`, &got),
	)
	require.NoError(t, err)
	assert.Equal(t, persona.UserAgent, got.UserAgent)
	assert.Equal(t, persona.Platform, got.Platform)
	assert.Equal(t, persona.Width, got.Width)
	assert.Equal(t, persona.DevicePixelRatio, got.Ratio)
}
