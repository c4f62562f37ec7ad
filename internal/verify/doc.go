// Package verify implements human verification for gated operations.
//
// On the client, Gate mirrors the challenge widget: OnSuccess stores a token,
// OnExpire and OnError drop it, and Consume hands the token to exactly one
// dispatch attempt. A token older than its lifetime is never handed out.
//
// On the authority, SiteVerifier redeems submitted tokens with Cloudflare
// Turnstile.
package verify
