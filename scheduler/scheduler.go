package scheduler

// Package scheduler provides the optional in-process scan schedule.
// Deployments normally trigger scans through an external cron hitting
// /api/v1/scan; this job covers environments without one.
//
// The scan job is implemented in jobs.go
