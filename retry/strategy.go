/*
DESCRIPTION
  strategy.go selects the stream read retry strategy of a job from its stall
  timeout and stall alert threshold.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package retry

import (
	"fmt"
	"time"
)

// Strategy is the way failed stream reads are retried.
type Strategy int

// Retry strategies.
const (
	NeverRetry         Strategy = iota // Fail on the first failed read.
	NoAlertNoTimeout                   // Retry forever.
	NoAlertWithTimeout                 // Retry until the stall timeout.
	AlertNoTimeout                     // Retry until the alert threshold, alert, then retry forever.
	AlertWithTimeout                   // Retry until the alert threshold, alert, then retry until the stall timeout.
)

func (s Strategy) String() string {
	switch s {
	case NeverRetry:
		return "NeverRetry"
	case NoAlertNoTimeout:
		return "NoAlertNoTimeout"
	case NoAlertWithTimeout:
		return "NoAlertWithTimeout"
	case AlertNoTimeout:
		return "AlertNoTimeout"
	case AlertWithTimeout:
		return "AlertWithTimeout"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Policy is a Strategy with the durations it uses.
type Policy struct {
	Strategy Strategy

	// StallTimeout is how long to retry after any alert has been sent. For
	// AlertWithTimeout it is the stall timeout less the alert threshold.
	StallTimeout time.Duration

	// AlertThreshold is how long to retry before sending a stall alert.
	AlertThreshold time.Duration
}

// NewPolicy returns the retry policy for a stall timeout and stall alert
// threshold. A stall timeout of zero means never retry and a negative one
// means retry forever. A non-positive alert threshold, or one not less than a
// positive stall timeout, disables alerts.
func NewPolicy(stallTimeout, alertThreshold time.Duration) Policy {
	alert := alertThreshold > 0
	switch {
	case stallTimeout == 0:
		return Policy{Strategy: NeverRetry}
	case stallTimeout < 0 && !alert:
		return Policy{Strategy: NoAlertNoTimeout, StallTimeout: -1, AlertThreshold: -1}
	case stallTimeout < 0:
		return Policy{Strategy: AlertNoTimeout, StallTimeout: -1, AlertThreshold: alertThreshold}
	case !alert || alertThreshold >= stallTimeout:
		return Policy{Strategy: NoAlertWithTimeout, StallTimeout: stallTimeout, AlertThreshold: -1}
	default:
		return Policy{Strategy: AlertWithTimeout, StallTimeout: stallTimeout - alertThreshold, AlertThreshold: alertThreshold}
	}
}
