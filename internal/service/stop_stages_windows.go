//go:build windows

package service

import "time"

// Windows has no SIGINT delivery to an unattached console process, so the
// database goes straight to terminate-then-wait before the kill fallback.
var databaseStopStages = []StopStage{
	{Signal: SigTerminate, Wait: 15 * time.Second},
}
