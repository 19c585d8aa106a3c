// Package httputil provides the retry policy shared by the knowledge-service
// clients.
//
// Transient failures are marked by wrapping them in a [RetryableError];
// [Retry] repeats an operation only for those, with exponential backoff:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := http.DefaultClient.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Permanent failures such as 404 answers or malformed JSON are returned
// after the first attempt.
package httputil
