package cognito

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SecretHash computes the per-user tag Cognito requires on every credentialed
// operation of an app client that has a secret:
//
//	base64( HMAC-SHA256( key = clientSecret, msg = username + clientID ) )
//
// Cognito compares the tag byte for byte, so this must stay exactly
// UTF-8 in, standard padded base64 out. A mismatch surfaces as
// NotAuthorizedException on the provider side, not as a local error.
func SecretHash(username, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// secretHash aplica la configuración del cliente.
func (c *Client) secretHash(username string) string {
	return SecretHash(username, c.clientID, c.clientSecret)
}
