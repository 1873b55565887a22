package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joshsymonds/beacon/internal/models"
)

// FetchSnapshot runs one full fetch session: token exchange, account list,
// findings list. Account failures are fatal for the session; a findings
// failure degrades to an empty findings list, with 403 recorded on the
// snapshot so the dashboard can show a permissions warning instead of a
// misleading "no findings".
func (c *Client) FetchSnapshot(ctx context.Context) (*models.Snapshot, error) {
	if err := c.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}

	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{
		ID:        uuid.NewString(),
		FetchedAt: time.Now().UTC(),
		Accounts:  accounts,
	}

	findings, err := c.ListFindings(ctx)
	switch {
	case errors.Is(err, ErrPermissionDenied):
		c.logger.Warn("Permission denied to fetch findings; check your API permissions")
		snap.PermissionDenied = true
	case err != nil:
		c.logger.Error("Failed to fetch findings", "error", err)
	default:
		snap.Findings = findings
	}

	return snap, nil
}
