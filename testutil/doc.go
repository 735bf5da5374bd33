// Package testutil provides testing infrastructure for dispatch services.
//
// The CompletionServer is a scriptable stand-in for an OpenAI-compatible
// chat completion API. Tests script its responses, point a dispatcher's
// BaseURL at it, and assert on the requests it received.
//
// # Quick Start
//
//	func TestDispatch(t *testing.T) {
//	    server := testutil.NewCompletionServer(t)
//	    server.Respond("Hello!", 12)
//
//	    d, err := dispatch.New(dispatch.Config{
//	        APIKey:  "sk-test",
//	        BaseURL: server.URL(),
//	    })
//	    ...
//	}
//
// Scripted steps play back in order; the last step repeats once the script
// is exhausted:
//
//	server.Fail(429, "rate limited")          // every call is rate limited
//	server.Fail(500, "boom").Respond("ok", 3) // one failure, then success
package testutil
