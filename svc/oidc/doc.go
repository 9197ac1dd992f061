// Package oidc implements the authorization server side of the login
// exchange: registered client applications, single-use authorization codes
// and the issuance of ID tokens.
//
// A successful login for a request naming a client application produces a
// code through CodeService.Issue and a redirect to the application's
// redirect URI. The application's backend then calls Exchange.Redeem with
// its credentials; the code is consumed by one conditional delete, so two
// concurrent redemptions of the same code cannot both succeed.
//
// Expired codes are removed by the Sweeper on a timer and opportunistically
// after each redemption.
package oidc
