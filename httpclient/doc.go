// Package httpclient provides a small timeout-bound HTTP client used for
// outbound fetches such as JWKS documents. It never retries: a failed call
// is classified into a typed *Error and returned to the caller.
//
//	client, err := httpclient.New(httpclient.Config{Timeout: 5 * time.Second})
//	resp, err := client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: url})
//	if httpclient.IsTimeout(err) { ... }
package httpclient
