// Package clientip resolves the originating client address of a request
// served behind reverse proxies. Headers are consulted in order and the
// first one holding a valid IP wins; RemoteAddr is the fallback.
//
// The resolved address is forwarded to CAPTCHA verification, so a spoofed
// header only weakens the provider's risk scoring and never grants access.
package clientip
