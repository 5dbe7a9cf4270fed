// Package jobs contains the background loops that drive the notification
// queue: a dispatcher that delivers due notifications every minute and a
// daily cleanup that trims delivered history.
package jobs
