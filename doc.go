/*
Package bearerauth provides net/http middleware that authenticates requests
carrying bearer tokens issued by an OpenID Connect provider with a published
JWKS, such as an Amazon Cognito user pool.

The middleware is a thin transport adapter. Verification lives in the
validator package, key handling in jwks and the transport-independent
outcome in core:

	request -> TokenExtractor -> core.Core -> validator.Validator -> jwks.Resolver -> jwks.Cache

# Quick Start

	cache, err := jwks.NewCache(
	    "https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_example/.well-known/jwks.json",
	)
	if err != nil {
	    log.Fatal(err)
	}
	resolver, err := jwks.NewResolver(cache)
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New(
	    validator.WithKeyResolver(resolver),
	    validator.WithIssuer("https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_example"),
	    validator.WithAudience("3n4b5urk1ft4fl3mg5e62d9ado"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	middleware, err := bearerauth.New(bearerauth.WithValidator(v))
	if err != nil {
	    log.Fatal(err)
	}

	http.Handle("/api/", middleware.CheckJWT(apiHandler))

# Reading the Subject

After CheckJWT, handlers read the verified subject and claims from the
request context and use the subject to look up their own user record:

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    outcome, err := bearerauth.GetOutcome(r.Context())
	    if err != nil {
	        http.Error(w, "unauthorized", http.StatusUnauthorized)
	        return
	    }
	    user, err := store.GetUser(r.Context(), outcome.Subject())
	    ...
	}

# Responses

DefaultErrorHandler never tells the client why a token was rejected. Every
rejection is the same 401 with {"message":"authentication failed"} and a
WWW-Authenticate header. The one exception is core.ReasonKeySourceUnavailable:
the provider's keys could not be fetched and nothing was cached, so the
request is answered with 503 and Retry-After because the same token may
succeed later. The specific reason is logged and counted in metrics.

# Observability

Loggers follow the log/slog method set. NewLogrusLogger and NewZapLogger
adapt logrus and zap. NewPrometheusMetrics registers verification and JWKS
fetch metrics; pass the same instance to WithMetrics and jwks.WithMetrics.
Spans are created with the global OpenTelemetry tracer provider unless
WithTracer is given.

# Frameworks

See framework/gin, framework/echo and integrations/grpc for adapters that
share this package's error semantics.
*/
package bearerauth
