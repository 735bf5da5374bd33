// Package dispatch sends user messages to an OpenAI-compatible chat
// completion API with bounded retries and normalized results.
//
// A dispatch either succeeds with the completion text or fails with a
// caller-facing error message; provider errors never propagate past the
// Result. Transient failures are retried with a fixed backoff, rate limits
// with a longer one, and credential failures never.
//
// # Usage
//
//	cfg := dispatch.Config{APIKey: os.Getenv("OPENAI_API_KEY")}
//	d, err := dispatch.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := d.Dispatch(ctx, "Summarize the incident report.")
//	if result.Success {
//		fmt.Println(result.Response)
//	}
//
// The configured default model can be overridden per dispatch:
//
//	result = d.Dispatch(ctx, "Translate to French.", dispatch.WithModel("gpt-4"))
//
// TestConnection sends a fixed greeting to verify the credential and
// endpoint:
//
//	if res := d.TestConnection(ctx); !res.Success {
//		log.Fatal(res.Error)
//	}
package dispatch
