// matchmaker/service/errors.go
package service

import "fmt"

// Custom errors for clear communication to the API layer.
var (
	ErrUserNotFound   = fmt.Errorf("user not found")
	ErrPlayerNotFound = fmt.Errorf("player not found")
	ErrQueueNotFound  = fmt.Errorf("queue entry not found")
	ErrTeamNotFound   = fmt.Errorf("team not found")
	ErrMatchNotFound  = fmt.Errorf("match not found")

	// ErrMatchNotSettleable: the match exists but is not in_progress, so
	// settlement is illegal. Covers both "not started" and "already settled".
	ErrMatchNotSettleable = fmt.Errorf("match is not in a settleable state")

	// ErrIncompleteGraph: the match -> team -> player reference graph does
	// not resolve fully (wrong team cardinality, dangling ids, empty roster).
	ErrIncompleteGraph = fmt.Errorf("match reference graph is incomplete")

	// ErrInvalidOutcome: the supplied score does not map to a recognized
	// win/loss/draw encoding.
	ErrInvalidOutcome = fmt.Errorf("score does not encode a valid outcome")

	// ErrSettlementConflict: the atomic settlement write lost a race. The
	// other writer's settlement may have committed; callers must re-fetch
	// the match to observe the actual outcome, never assume failure.
	ErrSettlementConflict = fmt.Errorf("settlement lost a write race")
)
