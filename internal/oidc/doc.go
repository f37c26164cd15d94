/*
Package oidc locates the JWKS endpoint of a token issuer.

For Cognito the location is fixed:

	issuer, _ := oidc.CognitoIssuerURL("ap-northeast-1", "ap-northeast-1_example")
	jwksURL, _ := oidc.JWKSURL(issuer)
	// https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_example/.well-known/jwks.json

Other providers publish it in their OpenID discovery document:

	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, issuer)
	if err != nil {
	    return err
	}
	jwksURL := endpoints.JWKSURI

The discovery document must name the issuer it was fetched for
(OpenID Connect Discovery 1.0, section 4.3).
*/
package oidc
