//go:build !windows

package service

import "time"

// On unix the database is asked to stop with SIGINT first (the least
// disruptive signal mysqld honors), then SIGTERM, before the kill fallback.
var databaseStopStages = []StopStage{
	{Signal: SigInterrupt, Wait: 15 * time.Second},
	{Signal: SigTerminate, Wait: 10 * time.Second},
}
