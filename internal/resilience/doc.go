// Package resilience groups the fault tolerance helpers used around external calls.
//
// The package supports:
//   - Circuit breakers for the listing page fetch and for each notification channel
//   - Retry logic with exponential backoff and jitter for webhook deliveries
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.ListingFetchConfig(30 * time.Second))
//	body, err := circuitbreaker.Call(cb, func() ([]byte, error) {
//	    return fetchListing(ctx)
//	})
//	if circuitbreaker.IsRejected(err) {
//	    // still cooling down after a run of failures
//	}
//
//	err := retry.WithBackoff(ctx, retry.WebhookConfig(), func() error {
//	    return postWebhook()
//	})
package resilience
