// Package constants defines shared constants for the agrovision application.
package constants

import "time"

// ResultTTL is how long translation and treatment results stay in the cache.
// Results are keyed by label and language, a naturally small domain, so entries
// are only ever removed by expiry.
const ResultTTL = 7 * 24 * time.Hour

// AppName identifies the service in health checks and logs.
const AppName = "agrovision"

// DefaultUserID is used for history lookups until real user identity exists.
const DefaultUserID = "demo"
