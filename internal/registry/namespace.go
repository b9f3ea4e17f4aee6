package registry

import (
	"context"

	"github.com/bnema/ghcr-retention/internal/config"
)

// Namespace presents one interface for listing and deleting image versions
// regardless of whether they live under an org or a personal account. The
// implementation is chosen once from the validated Config, so nothing
// downstream branches on account type.
type Namespace interface {
	ListVersions(ctx context.Context, image ImageName) ([]Version, error)
	DeleteVersion(ctx context.Context, image ImageName, versionID int64) error
}

// NamespaceFor binds the Client calls matching cfg's account type. For the
// org case the organization name is bound in here as well.
func NamespaceFor(c *Client, cfg *config.Config) Namespace {
	if cfg.AccountType == config.AccountTypeOrg {
		return &orgNamespace{client: c, orgName: cfg.OrgName}
	}
	return &personalNamespace{client: c}
}

type orgNamespace struct {
	client  *Client
	orgName string
}

func (n *orgNamespace) ListVersions(ctx context.Context, image ImageName) ([]Version, error) {
	return n.client.ListOrgVersions(ctx, n.orgName, image)
}

func (n *orgNamespace) DeleteVersion(ctx context.Context, image ImageName, versionID int64) error {
	return n.client.DeleteOrgVersion(ctx, n.orgName, image, versionID)
}

type personalNamespace struct {
	client *Client
}

func (n *personalNamespace) ListVersions(ctx context.Context, image ImageName) ([]Version, error) {
	return n.client.ListUserVersions(ctx, image)
}

func (n *personalNamespace) DeleteVersion(ctx context.Context, image ImageName, versionID int64) error {
	return n.client.DeleteUserVersion(ctx, image, versionID)
}
