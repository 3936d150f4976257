package cdp

import "context"

// combineContext derives a context from primary, which carries the chromedp target,
// that is also canceled when secondary, which carries the caller's deadline, is done.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(secondary, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}
