// Package retention prunes drafts that have been abandoned for longer than the
// configured retention period, either on demand or on a cron schedule.
package retention
