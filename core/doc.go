/*
Package core provides framework-agnostic bearer token verification that can
be used across different transport layers (HTTP, gRPC, etc.).

# Outcome

Every verification ends in exactly one Outcome:

	outcome.OK()        // authenticated
	outcome.Subject()   // the sub claim, used as the caller's lookup key
	outcome.Claims()    // verified claims
	outcome.Reason()    // why the token was rejected
	outcome.Retryable() // true only for ReasonKeySourceUnavailable

Rejections carry a Detail error for logs. Transports must not send the reason
or the detail to the client; a generic "authentication failed" response is
expected.

# Basic Usage

	v, err := validator.New(
	    validator.WithKeyResolver(resolver),
	    validator.WithIssuer("https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_example"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	c, err := core.New(
	    core.WithValidator(v),
	    core.WithLogger(logger),
	)
	if err != nil {
	    log.Fatal(err)
	}

	outcome, err := c.CheckToken(ctx, token)
	if err != nil {
	    // err matches core.ErrJWTInvalid or core.ErrJWTMissing
	}

# Context

Adapters store the authenticated outcome with SetOutcome; handlers read it
back with GetOutcome or Subject.
*/
package core
