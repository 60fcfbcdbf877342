package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// AzureTokenProvider acquires tokens for Azure Database for PostgreSQL.
// When tenant, client and secret are all configured, Service Principal
// authentication is used (the CI/CD path); otherwise the
// DefaultAzureCredential chain (env vars, workload identity, managed
// identity, Azure CLI).
type AzureTokenProvider struct {
	credential azcore.TokenCredential
	desc       string
}

func newAzureTokenProvider(config *pgrls.ConnectionConfig) (*AzureTokenProvider, error) {
	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		cred, err := azidentity.NewClientSecretCredential(
			config.AzureTenantID, config.AzureClientID, config.AzureClientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}
		return &AzureTokenProvider{
			credential: cred,
			desc: fmt.Sprintf("AzureServicePrincipal(tenant=%s, client=%s)",
				config.AzureTenantID, config.AzureClientID),
		}, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}
	return &AzureTokenProvider{
		credential: cred,
		desc:       "AzureDefaultCredential",
	}, nil
}

func (p *AzureTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{AzurePostgreSQLScope},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

func (p *AzureTokenProvider) String() string {
	return p.desc
}
