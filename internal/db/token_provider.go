package db

import (
	"context"
	"time"
)

// TokenProvider abstracts cloud token acquisition for database
// authentication. AWS IAM and Azure Entra ID both hand short-lived
// tokens to PostgreSQL as the password; the providers differ only in
// how the token is minted.
type TokenProvider interface {
	// GetToken acquires an auth token for database authentication.
	// Returns the token string and its expiry time.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String returns a human-readable description for logging.
	// Must NOT include secrets.
	String() string
}

// AzurePostgreSQLScope is the OAuth scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"
