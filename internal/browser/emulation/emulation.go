// Package emulation makes a Chromium tab report a schemas.Persona: user agent, platform,
// languages, viewport, pixel ratio and core count, through DevTools overrides.
package emulation

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
)

// Apply returns the overrides for p as one action. Zero-valued persona fields leave the
// browser's own value in place.
func Apply(p schemas.Persona, logger *zap.Logger) chromedp.Action {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := logger.Named("emulation")
	return chromedp.Tasks{
		network.Enable(),
		setExtraHTTPHeaders(p, l),
		setUserAgent(p, l),
		setDeviceMetrics(p, l),
		setHardwareConcurrency(p, l),
		chromedp.ActionFunc(func(context.Context) error {
			l.Debug("Persona applied.", zap.String("user_agent", p.UserAgent), zap.String("platform", p.Platform))
			return nil
		}),
	}
}

// AcceptLanguage renders languages as an Accept-Language header value, lowering the
// q-value by 0.1 per position down to 0.7.
func AcceptLanguage(languages []string) string {
	if len(languages) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(languages[0])
	for i := 1; i < len(languages); i++ {
		q := 1.0 - float64(i)*0.1
		if q < 0.7 {
			q = 0.7
		}
		fmt.Fprintf(&sb, ",%s;q=%.1f", languages[i], q)
	}
	return sb.String()
}

func setUserAgent(p schemas.Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if p.UserAgent == "" {
			return nil
		}
		override := emulation.SetUserAgentOverride(p.UserAgent).
			WithAcceptLanguage(strings.Join(p.Languages, ","))
		if p.Platform != "" {
			override = override.WithPlatform(p.Platform)
		}
		if err := override.Do(ctx); err != nil {
			logger.Error("Failed to set user agent override.", zap.Error(err))
			return fmt.Errorf("emulation: failed to set user agent override: %w", err)
		}
		return nil
	})
}

func setExtraHTTPHeaders(p schemas.Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		value := AcceptLanguage(p.Languages)
		if value == "" {
			return nil
		}
		if err := network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": value}).Do(ctx); err != nil {
			logger.Error("Failed to set extra HTTP headers.", zap.Error(err))
			return fmt.Errorf("emulation: failed to set extra http headers: %w", err)
		}
		return nil
	})
}

func setDeviceMetrics(p schemas.Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if p.Width <= 0 || p.Height <= 0 {
			return nil
		}
		ratio := p.DevicePixelRatio
		if ratio <= 0 {
			ratio = 1
		}
		orientation := emulation.OrientationTypeLandscapePrimary
		if p.Height > p.Width {
			orientation = emulation.OrientationTypePortraitPrimary
		}
		err := emulation.SetDeviceMetricsOverride(p.Width, p.Height, ratio, false).
			WithScreenOrientation(&emulation.ScreenOrientation{Type: orientation}).
			Do(ctx)
		if err != nil {
			logger.Error("Failed to set device metrics override.", zap.Error(err))
			return fmt.Errorf("emulation: failed to set device metrics: %w", err)
		}
		return nil
	})
}

func setHardwareConcurrency(p schemas.Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if p.HardwareConcurrency <= 0 {
			return nil
		}
		if err := emulation.SetHardwareConcurrencyOverride(p.HardwareConcurrency).Do(ctx); err != nil {
			// Older browsers lack the override; the rest of the persona still applies.
			logger.Warn("Hardware concurrency override unavailable.", zap.Error(err))
		}
		return nil
	})
}
