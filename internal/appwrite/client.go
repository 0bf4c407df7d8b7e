// Package appwrite builds the Appwrite SDK services the stores share and maps
// SDK errors to status checks.
package appwrite

import (
	"net/url"
	"strings"

	"github.com/appwrite/sdk-for-go/account"
	sdk "github.com/appwrite/sdk-for-go/appwrite"
	"github.com/appwrite/sdk-for-go/client"
	"github.com/appwrite/sdk-for-go/databases"
	"github.com/appwrite/sdk-for-go/storage"
)

type Config struct {
	Endpoint  string
	ProjectID string
	APIKey    string
}

// Client holds one API key client. Requests made on behalf of a user get their
// own client carrying the session secret instead of the key.
type Client struct {
	endpoint string
	project  string
	keyed    client.Client
}

func NewClient(cfg Config) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")

	return &Client{
		endpoint: endpoint,
		project:  cfg.ProjectID,
		keyed: sdk.NewClient(
			sdk.WithEndpoint(endpoint),
			sdk.WithProject(cfg.ProjectID),
			sdk.WithKey(cfg.APIKey),
		),
	}
}

func (c *Client) Databases() *databases.Databases {
	return sdk.NewDatabases(c.keyed)
}

// Storage uploads files in chunks once they exceed the SDK chunk size.
func (c *Client) Storage() *storage.Storage {
	return sdk.NewStorage(c.keyed)
}

func (c *Client) Account() *account.Account {
	return sdk.NewAccount(c.keyed)
}

// SessionAccount acts as the user holding secret.
func (c *Client) SessionAccount(secret string) *account.Account {
	return sdk.NewAccount(sdk.NewClient(
		sdk.WithEndpoint(c.endpoint),
		sdk.WithProject(c.project),
		sdk.WithSession(secret),
	))
}

// FilePreviewURL builds the public preview URL of a file. No request is made.
func (c *Client) FilePreviewURL(bucketID, fileID string) string {
	q := url.Values{}
	q.Set("project", c.project)
	return c.endpoint + "/storage/buckets/" + url.PathEscape(bucketID) + "/files/" + url.PathEscape(fileID) + "/preview?" + q.Encode()
}
