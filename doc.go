// Package sessionkit is a client-side session lifecycle engine for the
// VitalTrace apps. It wraps the remote auth API, a persistent
// credential store, and a verification-code store behind one
// SessionRepository that owns the LoggedOut / AwaitingMFA / LoggedIn
// state machine.
//
// Construct a repository with the Builder:
//
//	cfg, err := sessionkit.FromEnv()
//	if err != nil {
//		log.Fatal(err)
//	}
//	repo, err := sessionkit.New(cfg).
//		WithRedis(redisClient).
//		WithLogger(logger).
//		Build()
//
// All failures come back as (or wrapping) the package sentinel errors —
// callers branch with errors.Is and never parse messages.
package sessionkit
