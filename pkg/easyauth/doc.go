// Package easyauth is the relying-party client for an easyauth identity
// provider. An application backend uses it to redeem the authorization code
// delivered to its redirect URI, to verify the resulting ID token and to
// look up the signed-in user's profile.
//
//	client, err := easyauth.New(easyauth.Config{
//		Host:         "https://id.example.com",
//		ClientID:     os.Getenv("EASYAUTH_CLIENT_ID"),
//		ClientSecret: os.Getenv("EASYAUTH_CLIENT_SECRET"),
//	})
//	defer client.Close()
//
//	idToken, err := client.OnLoginRedirect(ctx, r.URL.Query().Get("code"))
//	claims, err := client.VerifyIDToken(ctx, idToken)
//
// ID tokens are verified against the application's JWK set, fetched from
// the provider and refreshed in the background. Applications configured
// for shared-secret tokens use WithSharedSecret instead.
package easyauth
