// Package httpclient is an HTTP client bound to a repository location that
// attaches the credentials stored for the location and reports
// authentication failures as typed, renegotiable errors.
//
// Each exchange is prepared, executed and validated:
//
//   - preparation offers the stored HTTP credentials (and, with preemptive
//     authentication, marks the host so they go out with the first request),
//     installs a client certificate trust override when certificate
//     credentials are stored, and routes through the location's proxy;
//   - execution is delegated to a Transport;
//   - validation turns 401 into a *repository.AuthenticationError naming the
//     HTTP authentication type and 407 into one naming repository.Proxy.
//
// The client never retries by itself. WithReauthentication implements the
// prompt-and-retry loop with an explicit RetryPolicy.
//
//	loc, _ := repository.NewLocation("https://repo.example.com", repository.WithRequester(prompter))
//	client, _ := httpclient.New(loc, httpclient.Config{Preemptive: true})
//
//	resp, err := client.DoWithReauthentication(ctx, httpclient.Request{Path: "/index.json"})
//	if errors.Is(err, repository.ErrCredentialsDeclined) {
//	    // the user cancelled the login prompt
//	}
package httpclient
