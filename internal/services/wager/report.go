package wager

import (
	"log/slog"

	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/metrics"
)

// Report logs the outcome of a failed game operation and returns err
// unchanged. Expected rejections are debug noise; anything else rolled back
// a unit of work and needs an operator.
func Report(log *slog.Logger, op string, playerID uint64, err error) error {
	if err == nil {
		return nil
	}

	if gameerr.Expected(err) {
		log.Debug("rejected", "op", op, "player_id", playerID, "code", gameerr.CodeOf(err))

		return err
	}

	metrics.RecordIntegrityError(op)
	log.Error("unit of work rolled back", "op", op, "player_id", playerID, "error", err)

	return err
}
