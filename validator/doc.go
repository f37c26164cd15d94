/*
Package validator verifies compact JWS bearer tokens issued by an OpenID
Connect provider such as Amazon Cognito.

Verification runs in fixed steps, and the first failing step decides the
rejection reason:

  - Decode splits the token without trusting it (core.ReasonMalformedToken)
  - the KeyResolver maps the header kid to a signing key
    (core.ReasonUnknownKey, core.ReasonKeySourceUnavailable)
  - the header alg must equal the key's algorithm (core.ReasonAlgorithmMismatch)
  - the signature is checked over the original header.payload bytes with
    lestrrat-go/jwx (core.ReasonInvalidSignature)
  - exp, nbf, iss, aud/client_id, token_use and sub are checked
    (core.ReasonExpired, core.ReasonNotYetValid, core.ReasonClaimMismatch)

Claims are never looked at before the signature has been verified.

# Basic Usage

	cache, err := jwks.NewCache(jwksURL)
	if err != nil {
	    log.Fatal(err)
	}
	resolver, err := jwks.NewResolver(cache)
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New(
	    validator.WithKeyResolver(resolver),
	    validator.WithIssuer(issuerURL),
	    validator.WithAudience(appClientID),
	    validator.WithTokenUse(validator.TokenUseID),
	)
	if err != nil {
	    log.Fatal(err)
	}

	outcome := v.ValidateToken(ctx, tokenString)
	if !outcome.OK() {
	    log.Printf("rejected: %s", outcome.Reason())
	    return
	}
	fmt.Println(outcome.Subject())

# Algorithm Pinning

Each key in the JWKS carries exactly one algorithm (from its alg member,
or inferred from the key type). A token is only verified with that
algorithm. Tokens declaring "none", an HMAC algorithm or any other
algorithm are rejected with core.ReasonAlgorithmMismatch whatever their
signature segment holds.

# Clock Skew Tolerance

By default a token is expired the instant its exp is reached. Use
WithAllowedClockSkew to tolerate servers with slightly different clocks:

	validator.WithAllowedClockSkew(30*time.Second)

# Thread Safety

The Validator is immutable after creation and safe for concurrent use.
*/
package validator
