/*
Package authsdk is the HTTP client for courtside's identity and roles
services.

Two kinds of callers use it. Services verifying bearer credentials call the
identity service through Me and GetJWKS:

	client := authsdk.NewClient("http://auth:8000", 5*time.Second)
	user, err := client.Me(ctx, token)

Operators and tests drive the roles service with the administrator
operations, each authenticated with the caller's bearer token:

	roles := authsdk.NewClient("http://roles:8001", 5*time.Second)
	resp, err := roles.CheckPermission(ctx, token, authsdk.PermissionCheckRequest{
		Resource: "reservations",
		Action:   "create",
	})

# Errors

Non-2xx responses become *APIError carrying the status code and the
{"error","message"} envelope. Failures to reach the service at all (dial
errors, timeouts) wrap ErrUnreachable, so callers can tell "the service said
no" from "the service did not answer".
*/
package authsdk
