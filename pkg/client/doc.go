// Package client is the recordledger Go SDK.
//
// It talks to ledgerd over HTTP: every ledger operation is a contract
// invocation, and the typed helpers wrap the positional-argument calls.
//
// # Connecting
//
// Authenticate with a caller token minted by 'rrctl token issue':
//
//	c, err := client.New("http://localhost:8080", client.WithBearerToken(token))
//
// or, against a development ledgerd, with a raw creator blob:
//
//	c, err := client.New("http://localhost:8080", client.WithCreator(creatorBase64))
//
// or with the client certificate in a directory holding cert.pem, key.pem
// and ca.pem:
//
//	c, err := client.New("https://ledger.example.com", client.WithCertDir(dir))
//
// # Records
//
//	rec, err := c.CreateRecord(ctx, "rec1", "12345678901", 50)
//	_, err = c.UpdateACL(ctx, "rec1", otherClientID, client.OpGrant, client.KindClient, "READ")
//	rec, err = c.QueryRecord(ctx, "rec1", false)
//
// Failures come back as *APIError; IsKind tests the ledger's classification:
//
//	if client.IsKind(err, "authorization_denied") { ... }
package client
