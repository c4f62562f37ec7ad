// Package authority implements keepsake-authority, a reference remote
// authority for local development and self-hosting.
//
// It speaks the same wire protocol the console and storefront expect:
//
//	GET  /rest/v1/{table}?select=*&order=created_at.desc
//	POST /functions/v1/admin-action   {"action","payload","password","turnstileToken"}
//	POST /functions/v1/submit-order   {"name","contact","items","total_amount","turnstileToken"}
//	POST /functions/v1/sign-guestbook {"name","content","turnstileToken"}
//	GET  /healthz
//
// Every /rest and /functions request must carry an anon key, an HS256 JWT
// with role "anon", in the apikey header or as a bearer token. Function
// calls redeem their Turnstile token through a verify.TokenVerifier before
// anything else, so a token is spent even when the password is wrong.
//
// Errors are JSON bodies of the form {"error": "message"}:
//
//	400  malformed body, unknown action, missing field, missing token
//	401  missing or invalid api key, wrong operator password
//	403  verification rejected
//	404  unknown table, update of a missing row
//	500  store failure, password not configured
//	502  verification service unreachable
//
// Deletes of rows that no longer exist succeed.
package authority
