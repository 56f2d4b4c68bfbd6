package repository

import (
	"context"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
)

// IdentityRepository yields the signed-in customer. Bearer tokens are attached
// by the API adapter's transport, so the domain only needs the identity.
type IdentityRepository interface {
	CurrentIdentity(ctx context.Context) (entity.Identity, error)
}
