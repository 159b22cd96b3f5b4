// Package repository models remote locations and the credentials used to
// authenticate against them.
//
// Credentials are indexed by typed authentication slots. Each slot is an
// AuthenticationType[T] that fixes the credential shape it accepts, so a
// certificate can never be stored where a username/password pair is expected:
//
//	loc, err := repository.NewLocation("https://tracker.example.com",
//	    repository.WithStore(repository.NewMemoryStore()),
//	    repository.WithRequester(prompter),
//	)
//
//	err = repository.Store(ctx, loc, repository.HTTP, repository.UserCredentials{
//	    Username: "alice",
//	    Password: "secret",
//	})
//
//	creds, ok, err := repository.Lookup(ctx, loc, repository.HTTP)
//
// A missing credential is reported as ok == false, never as an error. Only
// backend failures and shape mismatches (MisconfigurationError) are errors.
package repository
